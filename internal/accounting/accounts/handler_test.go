package accounts

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func generateCodeRequestFor(tenantID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/accounts/generate-code", strings.NewReader(`{"type":"ASSET"}`))
	scope := internalShared.RequestScope{TenantID: tenantID, ActorID: 7}
	return req.WithContext(internalShared.ContextWithScope(req.Context(), scope))
}

func TestHandlerCountsCodegenConflicts(t *testing.T) {
	repo := newMockRepository()
	// The next two counter values collide with pre-existing codes, so the
	// first request exhausts the retry.
	repo.add(Account{Code: "1001", Status: StatusActive})
	repo.add(Account{Code: "1002", Status: StatusActive})
	svc := newTestService(repo, nil)
	metrics := observability.NewMetrics()
	handler := NewHandler(slog.Default(), svc, metrics)

	r := chi.NewRouter()
	r.Route("/accounts", handler.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, generateCodeRequestFor(uuid.New()))
	require.Equal(t, http.StatusConflict, rec.Code)

	// The counter moved past the collisions, so the retry now succeeds and
	// must not bump the conflict counter again.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, generateCodeRequestFor(uuid.New()))
	require.Equal(t, http.StatusOK, rec.Code)

	scraped := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scraped, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scraped.Body.String(), "meridian_account_codegen_conflicts_total 1")
}
