package store

import (
	"context"
	"sync"

	"passbuy/internal/identity/models"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
)

// InMemory keeps users in maps for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]*models.User
	byEmail map[string]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.UserID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return sentinel.ErrConflict
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[user.Email] = &cp
	return nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}
