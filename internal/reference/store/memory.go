package store

import (
	"context"
	"sort"
	"sync"

	"passbuy/internal/reference/models"
	"passbuy/pkg/platform/sentinel"
)

// InMemory keeps the catalogs in maps. It favors clarity over performance and
// backs unit tests and local development.
type InMemory struct {
	mu        sync.RWMutex
	providers map[string]*models.Provider // keyed by code
	employers map[string]*models.Employer // keyed by name
}

func NewInMemory() *InMemory {
	return &InMemory{
		providers: make(map[string]*models.Provider),
		employers: make(map[string]*models.Employer),
	}
}

func (s *InMemory) FindProviderByCode(_ context.Context, code string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.providers[code]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindEmployerByName(_ context.Context, name string) (*models.Employer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.employers[name]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListProviders(_ context.Context) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemory) ListEmployers(_ context.Context) ([]*models.Employer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Employer, 0, len(s.employers))
	for _, e := range s.employers {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) CreateProvider(_ context.Context, p *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[p.Code]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.providers {
		if existing.Name == p.Name {
			return sentinel.ErrConflict
		}
	}
	cp := *p
	s.providers[p.Code] = &cp
	return nil
}

func (s *InMemory) CreateEmployer(_ context.Context, e *models.Employer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employers[e.Name]; ok {
		return sentinel.ErrConflict
	}
	cp := *e
	s.employers[e.Name] = &cp
	return nil
}

func (s *InMemory) CountProviders(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.providers), nil
}

func (s *InMemory) CountEmployers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employers), nil
}
