package store

import (
	"context"
	"sort"
	"sync"

	"passbuy/internal/workflow/models"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
)

// InMemory implements Store with maps under one mutex, which makes every
// operation trivially atomic. It backs unit tests and local development and
// enforces the same uniqueness rules as the SQL schema.
type InMemory struct {
	mu    sync.RWMutex
	apps  map[domain.ApplicationID]*models.Application
	cards map[domain.CardID]*models.Card
}

func NewInMemory() *InMemory {
	return &InMemory{
		apps:  make(map[domain.ApplicationID]*models.Application),
		cards: make(map[domain.CardID]*models.Card),
	}
}

func (s *InMemory) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evidence uniqueness holds across all applications, not just pending ones.
	for _, existing := range s.apps {
		if app.Education != nil && existing.Education != nil &&
			existing.Education.ProviderID == app.Education.ProviderID &&
			existing.Education.StudentNumber == app.Education.StudentNumber {
			return sentinel.ErrConflict
		}
		if app.Transport != nil && existing.Transport != nil &&
			existing.Transport.EmployerID == app.Transport.EmployerID &&
			existing.Transport.EmployeeNumber == app.Transport.EmployeeNumber {
			return sentinel.ErrConflict
		}
	}

	s.apps[app.ID] = cloneApplication(app)
	return nil
}

func (s *InMemory) ApproveAndIssue(_ context.Context, userID domain.UserID, appID *domain.ApplicationID, card *models.Card) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*models.Application
	for _, app := range s.apps {
		if app.UserID != userID || app.Status != models.StatusPending {
			continue
		}
		if appID != nil && app.ID != *appID {
			continue
		}
		candidates = append(candidates, app)
	}
	if len(candidates) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].AppliedAt.After(candidates[j].AppliedAt)
	})
	chosen := candidates[0]

	chosen.Status = models.StatusApproved

	issued := *card
	issued.UserID = userID
	issued.ApplicationID = chosen.ID
	issued.CardClass = chosen.CardClass
	s.cards[issued.ID] = cloneCard(&issued)
	return cloneCard(&issued), nil
}

func (s *InMemory) ReconcileStale(_ context.Context, userID domain.UserID) (models.ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	linked := make(map[domain.ApplicationID]bool)
	for _, c := range s.cards {
		linked[c.ApplicationID] = true
	}

	var result models.ReconcileResult
	for id, app := range s.apps {
		if app.UserID != userID {
			continue
		}
		if linked[id] {
			result.SkippedLinkedToCard++
			continue
		}
		if app.Status != models.StatusPending {
			continue
		}
		if app.Education != nil || app.Transport != nil {
			result.DeletedEvidence++
		}
		delete(s.apps, id)
		result.DeletedApplications++
	}
	return result, nil
}

func (s *InMemory) ListApplications(_ context.Context, userID domain.UserID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if app.UserID == userID {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

func (s *InMemory) ListCards(_ context.Context, userID domain.UserID) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Card
	for _, c := range s.cards {
		if c.UserID == userID {
			out = append(out, cloneCard(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApprovedAt.After(out[j].ApprovedAt) })
	return out, nil
}

func (s *InMemory) DeleteCard(_ context.Context, userID domain.UserID, cardID domain.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok || c.UserID != userID {
		return sentinel.ErrNotFound
	}
	delete(s.cards, cardID)
	return nil
}

func cloneApplication(app *models.Application) *models.Application {
	cp := *app
	if app.Education != nil {
		e := *app.Education
		cp.Education = &e
	}
	if app.Transport != nil {
		t := *app.Transport
		cp.Transport = &t
	}
	return &cp
}

func cloneCard(c *models.Card) *models.Card {
	cp := *c
	if c.TopUp.Auto != nil {
		a := *c.TopUp.Auto
		cp.TopUp.Auto = &a
	}
	if c.TopUp.Schedule != nil {
		sch := *c.TopUp.Schedule
		cp.TopUp.Schedule = &sch
	}
	return &cp
}
