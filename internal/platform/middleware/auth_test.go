package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbuy/internal/jwttoken"
	domain "passbuy/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedHandler(t *testing.T, validator TokenValidator, capture *domain.UserID) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		require.True(t, ok, "user id should be on the context past the middleware")
		*capture = userID
		w.WriteHeader(http.StatusNoContent)
	})
	return RequireAuth(validator, discardLogger())(inner)
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tokens := jwttoken.NewService("test-key", "PassBuy", "PassBuyClients")
	userID := domain.NewUserID()
	token, err := tokens.Issue(userID, "rider@example.com", "", time.Hour)
	require.NoError(t, err)

	var seen domain.UserID
	handler := authedHandler(t, tokens, &seen)

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID, seen)
}

func TestRequireAuthRejections(t *testing.T) {
	tokens := jwttoken.NewService("test-key", "PassBuy", "PassBuyClients")
	otherKey := jwttoken.NewService("other-key", "PassBuy", "PassBuyClients")

	forged, err := otherKey.Issue(domain.NewUserID(), "rider@example.com", "", time.Hour)
	require.NoError(t, err)
	expired, err := tokens.Issue(domain.NewUserID(), "rider@example.com", "", -2*time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"no header":     "",
		"not bearer":    "Basic dXNlcjpwYXNz",
		"empty token":   "Bearer ",
		"garbage token": "Bearer not-a-jwt",
		"wrong key":     "Bearer " + forged,
		"expired token": "Bearer " + expired,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			var seen domain.UserID
			handler := authedHandler(t, tokens, &seen)

			req := httptest.NewRequest(http.MethodGet, "/cards", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			// Same generic body for every rejection.
			assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid credentials"}`, rec.Body.String())
			assert.True(t, seen.IsZero(), "inner handler must not run")
		})
	}
}
