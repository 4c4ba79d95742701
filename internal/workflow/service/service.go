// Package service implements the application workflow engine: apply, fulfill,
// reconcile, and the card ledger reads.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"passbuy/internal/platform/events"
	"passbuy/internal/platform/metrics"
	refstore "passbuy/internal/reference/store"
	"passbuy/internal/workflow/models"
	"passbuy/internal/workflow/store"
	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
	"passbuy/pkg/platform/sentinel"
)

type Service struct {
	store     store.Store
	reference refstore.Store
	metrics   *metrics.Metrics
	events    events.Publisher
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(st store.Store, ref refstore.Store, m *metrics.Metrics, pub events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     st,
		reference: ref,
		metrics:   m,
		events:    pub,
		tracer:    otel.Tracer("passbuy/workflow"),
		now:       time.Now,
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Apply creates a pending application with its evidence. Validation and
// reference resolution happen before any write; the insert itself is atomic.
func (s *Service) Apply(ctx context.Context, userID domain.UserID, req *models.ApplyRequest) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Apply",
		trace.WithAttributes(attribute.String("card_class", string(req.CardClass))))
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:        domain.NewApplicationID(),
		UserID:    userID,
		CardClass: req.CardClass,
		Status:    models.StatusPending,
		AppliedAt: s.now().UTC(),
	}

	switch {
	case req.Education != nil:
		provider, err := s.reference.FindProviderByCode(ctx, req.Education.ProviderCode)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, derrors.Newf(derrors.CodeReferenceNotFound, "unknown education provider %q", req.Education.ProviderCode)
			}
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve provider")
		}
		app.Education = &models.EducationEvidence{
			ProviderID:    provider.ID,
			StudentNumber: req.Education.StudentNumber,
			CourseCode:    req.Education.CourseCode,
			CourseTitle:   req.Education.CourseTitle,
		}
	case req.Transport != nil:
		employer, err := s.reference.FindEmployerByName(ctx, req.Transport.EmployerName)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, derrors.Newf(derrors.CodeReferenceNotFound, "unknown transport employer %q", req.Transport.EmployerName)
			}
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve employer")
		}
		app.Transport = &models.TransportEvidence{
			EmployerID:     employer.ID,
			EmployeeNumber: req.Transport.EmployeeNumber,
		}
	}

	if err := app.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeConflict, "matching evidence already exists on another application")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create application")
	}

	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.WithLabelValues(string(app.CardClass)).Inc()
	}
	s.events.Publish(ctx, events.Event{
		Type:       events.TypeApplicationCreated,
		UserID:     userID.String(),
		EntityID:   app.ID.String(),
		OccurredAt: app.AppliedAt,
	})
	return app, nil
}

// Fulfill approves one pending application owned by the caller and issues the
// card. The chosen application is re-checked inside the same transaction that
// mutates it, so a racing reconciliation cannot delete it mid-fulfillment.
func (s *Service) Fulfill(ctx context.Context, userID domain.UserID, req *models.FulfillRequest) (*models.Card, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Fulfill")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	card := &models.Card{
		ID:             domain.NewCardID(),
		ApprovedAt:     s.now().UTC(),
		TopUp:          req.TopUp(),
		FundingAccount: req.FundingAccount,
	}

	issued, err := s.store.ApproveAndIssue(ctx, userID, req.ApplicationID, card)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, derrors.New(derrors.CodeNotFound, "no matching pending application")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, derrors.New(derrors.CodeConflict, "application already fulfilled")
		default:
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to fulfill application")
		}
	}

	if s.metrics != nil {
		s.metrics.CardsIssued.Inc()
	}
	s.events.Publish(ctx, events.Event{
		Type:       events.TypeCardIssued,
		UserID:     userID.String(),
		EntityID:   issued.ID.String(),
		OccurredAt: issued.ApprovedAt,
	})
	return issued, nil
}

// ReconcileStale deletes the caller's pending applications that no issued
// card references.
func (s *Service) ReconcileStale(ctx context.Context, userID domain.UserID) (models.ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.ReconcileStale")
	defer span.End()

	result, err := s.store.ReconcileStale(ctx, userID)
	if err != nil {
		return models.ReconcileResult{}, derrors.Wrap(err, derrors.CodeInternal, "failed to reconcile stale applications")
	}

	if s.metrics != nil && result.DeletedApplications > 0 {
		s.metrics.StaleAppsDeleted.Add(float64(result.DeletedApplications))
	}
	if result.DeletedApplications > 0 {
		s.events.Publish(ctx, events.Event{
			Type:       events.TypeApplicationsReconciled,
			UserID:     userID.String(),
			OccurredAt: s.now().UTC(),
		})
	}
	return result, nil
}

// ListCards returns the caller's issued cards.
func (s *Service) ListCards(ctx context.Context, userID domain.UserID) ([]*models.Card, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list cards")
	}
	return cards, nil
}

// ListApplications returns the caller's applications, newest first.
func (s *Service) ListApplications(ctx context.Context, userID domain.UserID) ([]*models.Application, error) {
	apps, err := s.store.ListApplications(ctx, userID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// DeleteCard removes one of the caller's cards. The originating application
// is left untouched.
func (s *Service) DeleteCard(ctx context.Context, userID domain.UserID, cardID domain.CardID) error {
	if err := s.store.DeleteCard(ctx, userID, cardID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "card not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to delete card")
	}
	return nil
}
