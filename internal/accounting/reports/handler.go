package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires financial reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes for financial reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.handleTrialBalance)
	r.Get("/pl", h.handleProfitAndLoss)
	r.Get("/bs", h.handleBalanceSheet)
}

func windowFromQuery(r *http.Request) (Window, error) {
	var window Window
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Window{}, err
		}
		window.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Window{}, err
		}
		window.To = to
	}
	return window, nil
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), scope.TenantID, window)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	pl, err := h.service.ProfitAndLoss(r.Context(), scope.TenantID, window)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), scope.TenantID, window)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}
