package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"passbuy/internal/identity/models"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
)

// Postgres persists identity records.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, password_salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(user.ID), user.Email, user.DisplayName,
		user.PasswordHash, user.PasswordSalt, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT id, email, display_name, password_hash, password_salt, created_at
		FROM users WHERE email = $1`, email)
}

func (s *Postgres) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	return s.findOne(ctx, `
		SELECT id, email, display_name, password_hash, password_salt, created_at
		FROM users WHERE id = $1`, uuid.UUID(id))
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u  models.User
		id uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &u.Email, &u.DisplayName, &u.PasswordHash, &u.PasswordSalt, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = domain.UserID(id)
	return &u, nil
}
