// Package store persists applications and issued cards. Every mutating
// operation that touches more than one row runs inside a single transaction;
// the interface exposes whole operations rather than row primitives so no
// caller can split an atomic unit across round trips.
package store

import (
	"context"

	"passbuy/internal/workflow/models"
	domain "passbuy/pkg/domain"
)

type Store interface {
	// CreateApplication inserts the application and its evidence row as one
	// atomic unit. An evidence uniqueness violation returns
	// sentinel.ErrConflict and leaves no rows behind.
	CreateApplication(ctx context.Context, app *models.Application) error

	// ApproveAndIssue flips one of the user's pending applications to
	// Approved and inserts the card, atomically. When appID is nil the most
	// recently applied-for pending application is chosen. The passed card
	// must carry ID, ApprovedAt, TopUp, and FundingAccount; the store fills
	// UserID, ApplicationID, and CardClass from the chosen application. No
	// matching pending application returns sentinel.ErrNotFound.
	ApproveAndIssue(ctx context.Context, userID domain.UserID, appID *domain.ApplicationID, card *models.Card) (*models.Card, error)

	// ReconcileStale deletes the user's pending applications that no card
	// references, with their evidence rows, as one atomic unit computed from
	// a single snapshot. Card-linked applications are counted as skipped and
	// untouched.
	ReconcileStale(ctx context.Context, userID domain.UserID) (models.ReconcileResult, error)

	ListApplications(ctx context.Context, userID domain.UserID) ([]*models.Application, error)
	ListCards(ctx context.Context, userID domain.UserID) ([]*models.Card, error)

	// DeleteCard removes a card owned by the user; sentinel.ErrNotFound when
	// absent or owned by someone else.
	DeleteCard(ctx context.Context, userID domain.UserID, cardID domain.CardID) error
}
