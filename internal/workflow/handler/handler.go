// Package handler exposes the card application workflow over HTTP. Thin
// layer: resolve the caller, decode, delegate, translate errors.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"passbuy/internal/platform/middleware"
	"passbuy/internal/transport/http/shared"
	"passbuy/internal/workflow/models"
	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
)

// Service defines the workflow operations the handler needs.
type Service interface {
	Apply(ctx context.Context, userID domain.UserID, req *models.ApplyRequest) (*models.Application, error)
	Fulfill(ctx context.Context, userID domain.UserID, req *models.FulfillRequest) (*models.Card, error)
	ReconcileStale(ctx context.Context, userID domain.UserID) (models.ReconcileResult, error)
	ListCards(ctx context.Context, userID domain.UserID) ([]*models.Card, error)
	ListApplications(ctx context.Context, userID domain.UserID) ([]*models.Application, error)
	DeleteCard(ctx context.Context, userID domain.UserID, cardID domain.CardID) error
}

type Handler struct {
	logger    *slog.Logger
	service   Service
	validator middleware.TokenValidator
}

func New(service Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service, validator: validator}
}

// Register mounts the workflow routes. Everything here requires an
// authenticated caller.
func (h *Handler) Register(r chi.Router) {
	wf := chi.NewRouter()
	wf.Use(middleware.RequestID)
	wf.Use(middleware.Recovery(h.logger))
	wf.Use(middleware.Logger(h.logger))
	wf.Use(middleware.Timeout(30 * time.Second))
	wf.Use(middleware.RequireAuth(h.validator, h.logger))

	wf.Post("/apply/{cardClass}", h.handleApply)
	wf.Post("/fulfill", h.handleFulfill)
	wf.Get("/cards", h.handleListCards)
	wf.Post("/cards/{id}/delete", h.handleDeleteCard)
	wf.Get("/applications", h.handleListApplications)
	wf.Post("/applications/stale", h.handleReconcileStale)
	wf.Delete("/applications/stale", h.handleReconcileStale)

	r.Mount("/", wf)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingCaller(ctx, w)
		return
	}

	cardClass, err := models.ParseCardClass(chi.URLParam(r, "cardClass"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req := models.ApplyRequest{CardClass: cardClass}
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.WriteError(w, err)
			return
		}
		req.CardClass = cardClass
	}

	app, err := h.service.Apply(ctx, userID, &req)
	if err != nil {
		h.logError(ctx, "apply failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"applicationId": app.ID,
		"cardClass":     app.CardClass,
		"status":        app.Status,
		"appliedAt":     app.AppliedAt,
	})
}

func (h *Handler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingCaller(ctx, w)
		return
	}

	var req models.FulfillRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	card, err := h.service.Fulfill(ctx, userID, &req)
	if err != nil {
		h.logError(ctx, "fulfill failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"cardId":        card.ID,
		"applicationId": card.ApplicationID,
		"cardClass":     card.CardClass,
		"approvedAt":    card.ApprovedAt,
		"topUp":         card.TopUp,
	})
}

func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingCaller(ctx, w)
		return
	}

	cards, err := h.service.ListCards(ctx, userID)
	if err != nil {
		h.logError(ctx, "list cards failed", err)
		shared.WriteError(w, err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	shared.WriteJSON(w, http.StatusOK, cards)
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingCaller(ctx, w)
		return
	}

	apps, err := h.service.ListApplications(ctx, userID)
	if err != nil {
		h.logError(ctx, "list applications failed", err)
		shared.WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	shared.WriteJSON(w, http.StatusOK, apps)
}

func (h *Handler) handleReconcileStale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingCaller(ctx, w)
		return
	}

	result, err := h.service.ReconcileStale(ctx, userID)
	if err != nil {
		h.logError(ctx, "reconcile failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingCaller(ctx, w)
		return
	}

	cardID, err := domain.ParseCardID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, derrors.New(derrors.CodeNotFound, "card not found"))
		return
	}

	if err := h.service.DeleteCard(ctx, userID, cardID); err != nil {
		h.logError(ctx, "delete card failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// missingCaller should never fire when RequireAuth is configured; it guards
// against wiring mistakes.
func (h *Handler) missingCaller(ctx context.Context, w http.ResponseWriter) {
	h.logger.ErrorContext(ctx, "user id missing from context despite auth middleware",
		"request_id", middleware.GetRequestID(ctx),
	)
	shared.WriteError(w, derrors.New(derrors.CodeInternal, "authentication context error"))
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if derrors.HasCode(err, derrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
