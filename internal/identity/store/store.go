// Package store persists identity records.
package store

import (
	"context"

	"passbuy/internal/identity/models"
	domain "passbuy/pkg/domain"
)

type Store interface {
	// Create inserts the user; a duplicate email returns sentinel.ErrConflict.
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
}
