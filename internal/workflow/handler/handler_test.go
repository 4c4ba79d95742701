package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbuy/internal/jwttoken"
	refstore "passbuy/internal/reference/store"
	"passbuy/internal/workflow/models"
	"passbuy/internal/workflow/service"
	"passbuy/internal/workflow/store"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/testutil"
)

type fixture struct {
	router chi.Router
	tokens *jwttoken.Service
	userID domain.UserID
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reference := refstore.NewInMemory()
	require.NoError(t, refstore.Seed(context.Background(), reference, logger))
	svc := service.New(store.NewInMemory(), reference, nil, nil)

	tokens := jwttoken.NewService("handler-test-key", "PassBuy", "PassBuyClients")
	userID := domain.NewUserID()
	token, err := tokens.Issue(userID, "rider@example.com", "Test Rider", time.Hour)
	require.NoError(t, err)

	router := chi.NewRouter()
	New(svc, tokens, logger).Register(router)

	return &fixture{router: router, tokens: tokens, userID: userID, token: token}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+f.token)
	return req
}

func TestRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)
	paths := []struct{ method, path string }{
		{http.MethodPost, "/apply/standard"},
		{http.MethodPost, "/fulfill"},
		{http.MethodGet, "/cards"},
		{http.MethodGet, "/applications"},
		{http.MethodPost, "/applications/stale"},
	}
	for _, p := range paths {
		req := testutil.NewRequest(t, p.method, p.path)
		rec := testutil.DoRequest(f.router, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestApply(t *testing.T) {
	t.Run("standard with no body", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/apply/standard")
		req.Header.Set("Authorization", "Bearer "+f.token)

		rec := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rec, http.StatusCreated)
		testutil.AssertJSONHasKey(t, rec, "applicationId")
		testutil.AssertJSONContains(t, rec, "cardClass", "Standard")
		testutil.AssertJSONContains(t, rec, "status", "Pending")
	})

	t.Run("education with evidence", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]any{
			"education": map[string]any{
				"providerCode":  "UOW",
				"studentNumber": 12345,
				"courseCode":    "COMP1000",
				"courseTitle":   "Introduction to Computing",
			},
		}
		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/apply/education", body))
		testutil.AssertStatus(t, rec, http.StatusCreated)
		testutil.AssertJSONContains(t, rec, "cardClass", "EducationConcession")
	})

	t.Run("unknown provider code", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]any{
			"education": map[string]any{
				"providerCode":  "NOPE",
				"studentNumber": 12345,
				"courseCode":    "COMP1000",
				"courseTitle":   "Introduction to Computing",
			},
		}
		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/apply/education", body))
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "reference_not_found")
	})

	t.Run("evidence shape mismatch", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]any{
			"education": map[string]any{
				"providerCode":  "UOW",
				"studentNumber": 12345,
				"courseCode":    "COMP1000",
				"courseTitle":   "Introduction to Computing",
			},
		}
		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/apply/standard", body))
		testutil.AssertStatusAndError(t, rec, http.StatusUnprocessableEntity, "validation_failed")
	})

	t.Run("unknown card class slug", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/apply/gold")
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusUnprocessableEntity, "validation_failed")
	})

	t.Run("duplicate education evidence conflicts", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]any{
			"education": map[string]any{
				"providerCode":  "UOW",
				"studentNumber": 777,
				"courseCode":    "COMP1000",
				"courseTitle":   "Introduction to Computing",
			},
		}
		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/apply/education", body))
		testutil.AssertStatus(t, rec, http.StatusCreated)

		rec = testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/apply/education", body))
		testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
	})
}

func TestFulfill(t *testing.T) {
	t.Run("auto top-up", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/apply/standard")
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rec, http.StatusCreated)

		body := map[string]any{
			"fundingAccount": "acc-1",
			"topUpMode":      "auto",
			"autoThreshold":  25,
			"autoAmount":     20,
		}
		rec = testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/fulfill", body))
		testutil.AssertStatus(t, rec, http.StatusCreated)

		resp := testutil.UnmarshalResponse[struct {
			CardID        string       `json:"cardId"`
			ApplicationID string       `json:"applicationId"`
			CardClass     string       `json:"cardClass"`
			TopUp         models.TopUp `json:"topUp"`
		}](t, rec)
		assert.NotEmpty(t, resp.CardID)
		assert.Equal(t, "Standard", resp.CardClass)
		assert.Equal(t, models.TopUpAuto, resp.TopUp.Mode)
		require.NotNil(t, resp.TopUp.Auto)
		assert.Equal(t, 25.0, resp.TopUp.Auto.Threshold)
		assert.Nil(t, resp.TopUp.Schedule)
	})

	t.Run("missing funding account", func(t *testing.T) {
		f := newFixture(t)
		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/fulfill", map[string]any{"topUpMode": "manual"}))
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	})

	t.Run("no pending application", func(t *testing.T) {
		f := newFixture(t)
		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/fulfill", map[string]any{"fundingAccount": "acc-1"}))
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})
}

func TestCardEndpoints(t *testing.T) {
	t.Run("empty ledger lists as empty array", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewRequest(t, http.MethodGet, "/cards")
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rec, http.StatusOK)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("delete with malformed id reports not found", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/cards/not-a-uuid/delete")
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})

	t.Run("issue then delete", func(t *testing.T) {
		f := newFixture(t)
		req := testutil.NewRequest(t, http.MethodPost, "/apply/standard")
		req.Header.Set("Authorization", "Bearer "+f.token)
		testutil.DoRequest(f.router, req)

		rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/fulfill", map[string]any{"fundingAccount": "acc-1"}))
		testutil.AssertStatus(t, rec, http.StatusCreated)
		resp := testutil.UnmarshalResponse[struct {
			CardID string `json:"cardId"`
		}](t, rec)

		req = testutil.NewRequest(t, http.MethodPost, "/cards/"+resp.CardID+"/delete")
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec = testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rec, http.StatusOK)
		testutil.AssertJSONContains(t, rec, "deleted", true)
	})
}

func TestReconcileStaleEndpoint(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequest(t, http.MethodPost, "/apply/standard")
	req.Header.Set("Authorization", "Bearer "+f.token)
	testutil.DoRequest(f.router, req)
	req = testutil.NewRequest(t, http.MethodPost, "/apply/youth")
	req.Header.Set("Authorization", "Bearer "+f.token)
	testutil.DoRequest(f.router, req)

	rec := testutil.DoRequest(f.router, f.do(t, http.MethodPost, "/fulfill", map[string]any{"fundingAccount": "acc-1"}))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	req = testutil.NewRequest(t, http.MethodPost, "/applications/stale")
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec = testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	result := testutil.UnmarshalResponse[models.ReconcileResult](t, rec)
	assert.Equal(t, 1, result.DeletedApplications)
	assert.Equal(t, 1, result.SkippedLinkedToCard)
}
