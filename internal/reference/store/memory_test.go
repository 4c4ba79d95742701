package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbuy/internal/reference/models"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
)

func TestInMemoryProviders(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	p := &models.Provider{ID: domain.NewProviderID(), Code: "UOW", Name: "University of Wollongong"}
	require.NoError(t, s.CreateProvider(ctx, p))

	t.Run("find by code", func(t *testing.T) {
		got, err := s.FindProviderByCode(ctx, "UOW")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("lookup is exact", func(t *testing.T) {
		_, err := s.FindProviderByCode(ctx, "uow")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		dup := &models.Provider{ID: domain.NewProviderID(), Code: "UOW", Name: "Something Else"}
		assert.ErrorIs(t, s.CreateProvider(ctx, dup), sentinel.ErrConflict)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		dup := &models.Provider{ID: domain.NewProviderID(), Code: "UOW2", Name: "University of Wollongong"}
		assert.ErrorIs(t, s.CreateProvider(ctx, dup), sentinel.ErrConflict)
	})
}

func TestInMemoryEmployers(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	e := &models.Employer{ID: domain.NewEmployerID(), Name: "Sydney Trains"}
	require.NoError(t, s.CreateEmployer(ctx, e))

	got, err := s.FindEmployerByName(ctx, "Sydney Trains")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = s.FindEmployerByName(ctx, "sydney trains")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	assert.ErrorIs(t, s.CreateEmployer(ctx, &models.Employer{ID: domain.NewEmployerID(), Name: "Sydney Trains"}), sentinel.ErrConflict)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Seed(ctx, s, logger))

	providers, err := s.ListProviders(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, providers)
	for i := 1; i < len(providers); i++ {
		assert.Less(t, providers[i-1].Code, providers[i].Code)
	}

	employers, err := s.ListEmployers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, employers)
	for i := 1; i < len(employers); i++ {
		assert.Less(t, employers[i-1].Name, employers[i].Name)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, Seed(ctx, s, logger))
	nProviders, err := s.CountProviders(ctx)
	require.NoError(t, err)
	nEmployers, err := s.CountEmployers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, nProviders)
	assert.Equal(t, 5, nEmployers)

	// A second run sees populated catalogs and leaves them alone.
	require.NoError(t, Seed(ctx, s, logger))
	again, err := s.CountProviders(ctx)
	require.NoError(t, err)
	assert.Equal(t, nProviders, again)
	again, err = s.CountEmployers(ctx)
	require.NoError(t, err)
	assert.Equal(t, nEmployers, again)
}
