// Package handler exposes signup and signin. Thin layer: decode, delegate,
// translate errors.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"passbuy/internal/identity/models"
	"passbuy/internal/platform/middleware"
	"passbuy/internal/transport/http/shared"
	derrors "passbuy/pkg/domain-errors"
)

// Service defines the identity operations the handler needs.
type Service interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.TokenResult, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.TokenResult, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	auth := chi.NewRouter()
	auth.Use(middleware.RequestID)
	auth.Use(middleware.Recovery(h.logger))
	auth.Use(middleware.Logger(h.logger))
	auth.Use(middleware.Timeout(30 * time.Second))
	auth.Post("/signup", h.handleSignUp)
	auth.Post("/signin", h.handleSignIn)

	r.Mount("/auth", auth)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SignUpRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.service.SignUp(ctx, &req)
	if err != nil {
		h.logError(ctx, "signup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SignInRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.service.SignIn(ctx, &req)
	if err != nil {
		h.logError(ctx, "signin failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
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
