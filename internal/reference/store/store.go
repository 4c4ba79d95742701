// Package store persists the reference catalogs. The workflow only reads
// them; writes happen through the one-time idempotent seed.
package store

import (
	"context"

	"passbuy/internal/reference/models"
)

type Store interface {
	FindProviderByCode(ctx context.Context, code string) (*models.Provider, error)
	FindEmployerByName(ctx context.Context, name string) (*models.Employer, error)
	ListProviders(ctx context.Context) ([]*models.Provider, error)
	ListEmployers(ctx context.Context) ([]*models.Employer, error)

	CreateProvider(ctx context.Context, p *models.Provider) error
	CreateEmployer(ctx context.Context, e *models.Employer) error
	CountProviders(ctx context.Context) (int, error)
	CountEmployers(ctx context.Context) (int, error)
}
