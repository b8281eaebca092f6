package balances

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires balance query endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers HTTP routes for balance queries.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/rollup", h.handleRollup)
	r.Post("/{id}/recalculate", h.handleRecalculate)
	r.Post("/recalculate", h.handleRecalculateAll)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var balance float64
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
			return
		}
		balance, err = h.service.CalculateAsOf(r.Context(), scope.TenantID, id, asOf)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance, "as_of": raw})
		return
	}
	balance, err = h.service.Calculate(r.Context(), scope.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

func (h *Handler) handleRollup(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	balance, err := h.service.ParentBalance(r.Context(), scope.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	balance, err := h.service.RecalculateAndCache(r.Context(), scope.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveBalanceRecalc()
	httpx.JSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

func (h *Handler) handleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	updated, err := h.service.RecalculateAll(r.Context(), scope.TenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": updated})
}
