// Package handler exposes the public reference catalog endpoints used to
// populate application choice lists. No authentication: the catalogs are not
// sensitive.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"passbuy/internal/platform/middleware"
	"passbuy/internal/reference/store"
	"passbuy/internal/transport/http/shared"
	derrors "passbuy/pkg/domain-errors"
)

type Handler struct {
	logger *slog.Logger
	store  store.Store
}

func New(s store.Store, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, store: s}
}

// Register mounts the reference routes.
func (h *Handler) Register(r chi.Router) {
	ref := chi.NewRouter()
	ref.Use(middleware.RequestID)
	ref.Use(middleware.Recovery(h.logger))
	ref.Use(middleware.Logger(h.logger))
	ref.Use(middleware.Timeout(10 * time.Second))
	ref.Get("/providers", h.handleListProviders)
	ref.Get("/employers", h.handleListEmployers)

	r.Mount("/reference", ref)
}

func (h *Handler) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.store.ListProviders(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list providers",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, derrors.New(derrors.CodeInternal, "failed to list providers"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, providers)
}

func (h *Handler) handleListEmployers(w http.ResponseWriter, r *http.Request) {
	employers, err := h.store.ListEmployers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list employers",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, derrors.New(derrors.CodeInternal, "failed to list employers"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, employers)
}
