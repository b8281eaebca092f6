package periods

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires fiscal calendar endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers HTTP routes for the fiscal calendar.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/years", h.handleBootstrapYear)
	r.Get("/years/{year}", h.handleListYear)
	r.Post("/years/{year}/close", h.handleCloseYear)
	r.Post("/{id}/lock", h.handleLock)
	r.Post("/{id}/unlock", h.handleUnlock)
	r.Post("/{id}/close", h.handleClose)
	r.Post("/{id}/reopen", h.handleReopen)
}

type bootstrapYearRequest struct {
	Year int `json:"year" validate:"required,min=1900,max=9999"`
}

func (h *Handler) handleBootstrapYear(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	var req bootstrapYearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	fy, list, err := h.service.BootstrapYear(r.Context(), scope.TenantID, req.Year, scope.ActorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"year": fy, "periods": list})
}

func (h *Handler) handleListYear(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Year", err.Error())
		return
	}
	list, err := h.service.ListYearPeriods(r.Context(), scope.TenantID, year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCloseYear(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Year", err.Error())
		return
	}
	fy, err := h.service.CloseYear(r.Context(), scope.TenantID, year, scope.ActorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fy)
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.LockPeriod)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.UnlockPeriod)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ClosePeriod)
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ReopenPeriod)
}

type transitionFunc func(ctx context.Context, tenantID uuid.UUID, periodID, actorID int64) (Period, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
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
	period, err := fn(r.Context(), scope.TenantID, id, scope.ActorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}
