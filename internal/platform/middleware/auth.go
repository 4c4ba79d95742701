package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"passbuy/internal/jwttoken"
	domain "passbuy/pkg/domain"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*jwttoken.Claims, error)
}

type contextKeyUserID struct{}

// ContextKeyUserID is exported for test helpers that simulate the middleware.
var ContextKeyUserID = contextKeyUserID{}

// GetUserID retrieves the authenticated user id from the context.
func GetUserID(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(domain.UserID)
	return id, ok
}

// RequireAuth resolves the caller from the Authorization header. All failures
// collapse to a generic 401 so clients cannot learn which check rejected the
// token. The resolver never mutates request or user state.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized - missing bearer token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - token rejected",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			userID, err := domain.ParseUserID(claims.Subject)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - malformed subject claim",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Missing or invalid credentials"}`))
}
