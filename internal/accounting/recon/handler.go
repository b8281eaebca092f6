package recon

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires reconciliation lock endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers HTTP routes for reconciliation sessions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.handleState)
	r.Post("/{id}/lock", h.handleAcquire)
	r.Post("/{id}/release", h.handleRelease)
}

type acquireRequest struct {
	DurationMinutes int        `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
}

func (h *Handler) handleAcquire(w http.ResponseWriter, r *http.Request) {
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
	var req acquireRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lease, err := h.service.Acquire(r.Context(), AcquireInput{
		TenantID:  scope.TenantID,
		AccountID: id,
		UserID:    scope.ActorID,
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lease)
}

type releaseRequest struct {
	Outcome           string    `json:"outcome" validate:"required,oneof=RECONCILED DISCREPANCY"`
	ReconciledUpTo    time.Time `json:"reconciled_up_to" validate:"required"`
	DiscrepancyAmount float64   `json:"discrepancy_amount"`
	DiscrepancyReason string    `json:"discrepancy_reason"`
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
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
	var req releaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Release(r.Context(), ReleaseInput{
		TenantID:          scope.TenantID,
		AccountID:         id,
		UserID:            scope.ActorID,
		Outcome:           Outcome(req.Outcome),
		ReconciledUpTo:    req.ReconciledUpTo,
		DiscrepancyAmount: req.DiscrepancyAmount,
		DiscrepancyReason: req.DiscrepancyReason,
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
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
	state, err := h.service.State(r.Context(), scope.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}
