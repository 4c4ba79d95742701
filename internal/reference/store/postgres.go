package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"passbuy/internal/reference/models"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
)

// Postgres persists the reference catalogs.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) FindProviderByCode(ctx context.Context, code string) (*models.Provider, error) {
	var (
		id   uuid.UUID
		name string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM education_providers WHERE code = $1`, code,
	).Scan(&id, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find provider by code: %w", err)
	}
	return &models.Provider{ID: domain.ProviderID(id), Code: code, Name: name}, nil
}

func (s *Postgres) FindEmployerByName(ctx context.Context, name string) (*models.Employer, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM transport_employers WHERE name = $1`, name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employer by name: %w", err)
	}
	return &models.Employer{ID: domain.EmployerID(id), Name: name}, nil
}

func (s *Postgres) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name FROM education_providers ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		var (
			id         uuid.UUID
			code, name string
		)
		if err := rows.Scan(&id, &code, &name); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, &models.Provider{ID: domain.ProviderID(id), Code: code, Name: name})
	}
	return out, rows.Err()
}

func (s *Postgres) ListEmployers(ctx context.Context) ([]*models.Employer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM transport_employers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employers: %w", err)
	}
	defer rows.Close()

	var out []*models.Employer
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan employer: %w", err)
		}
		out = append(out, &models.Employer{ID: domain.EmployerID(id), Name: name})
	}
	return out, rows.Err()
}

func (s *Postgres) CreateProvider(ctx context.Context, p *models.Provider) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO education_providers (id, code, name) VALUES ($1, $2, $3)`,
		uuid.UUID(p.ID), p.Code, p.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

func (s *Postgres) CreateEmployer(ctx context.Context, e *models.Employer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transport_employers (id, name) VALUES ($1, $2)`,
		uuid.UUID(e.ID), e.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create employer: %w", err)
	}
	return nil
}

func (s *Postgres) CountProviders(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM education_providers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count providers: %w", err)
	}
	return n, nil
}

func (s *Postgres) CountEmployers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM transport_employers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employers: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
