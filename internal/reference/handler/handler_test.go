package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbuy/internal/reference/models"
	"passbuy/internal/reference/store"
	"passbuy/pkg/testutil"
)

func TestListEndpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalogs := store.NewInMemory()
	require.NoError(t, store.Seed(context.Background(), catalogs, logger))

	router := chi.NewRouter()
	New(catalogs, logger).Register(router)

	t.Run("providers", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/reference/providers"))
		testutil.AssertStatus(t, rec, http.StatusOK)

		providers := testutil.UnmarshalResponse[[]*models.Provider](t, rec)
		assert.Len(t, *providers, 12)
	})

	t.Run("employers", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/reference/employers"))
		testutil.AssertStatus(t, rec, http.StatusOK)

		employers := testutil.UnmarshalResponse[[]*models.Employer](t, rec)
		assert.Len(t, *employers, 5)
	})
}
