// Package service implements signup and signin on top of the password vault
// and the token service.
package service

import (
	"context"
	"errors"
	"time"

	"passbuy/internal/identity/models"
	"passbuy/internal/identity/store"
	"passbuy/internal/jwttoken"
	"passbuy/internal/password"
	"passbuy/internal/platform/metrics"
	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
	"passbuy/pkg/platform/sentinel"
)

type Service struct {
	users    store.Store
	tokens   *jwttoken.Service
	tokenTTL time.Duration
	metrics  *metrics.Metrics
}

func New(users store.Store, tokens *jwttoken.Service, tokenTTL time.Duration, m *metrics.Metrics) *Service {
	return &Service{users: users, tokens: tokens, tokenTTL: tokenTTL, metrics: m}
}

// SignUp creates a user and returns a fresh bearer token.
func (s *Service) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.TokenResult, error) {
	if req == nil {
		return nil, derrors.New(derrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, salt, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           domain.NewUserID(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeConflict, "email already registered")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create user")
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.DisplayName, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	return &models.TokenResult{UserID: user.ID, Token: token}, nil
}

// SignIn verifies the password and returns a fresh bearer token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, req *models.SignInRequest) (*models.TokenResult, error) {
	if req == nil {
		return nil, derrors.New(derrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to look up user")
	}

	ok, err := password.Verify(req.Password, user.PasswordHash, user.PasswordSalt)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to verify password")
	}
	if !ok {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.DisplayName, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenResult{UserID: user.ID, Token: token}, nil
}
