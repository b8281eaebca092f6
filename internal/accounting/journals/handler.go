package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires journal ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers HTTP routes for the journal ledger.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handlePost)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/reverse", h.handleReverse)
}

type postLineRequest struct {
	AccountCode string  `json:"account_code" validate:"required"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description"`
}

type postEntryRequest struct {
	Date            *time.Time        `json:"date"`
	ReferenceType   string            `json:"reference_type" validate:"required"`
	ReferenceID     string            `json:"reference_id" validate:"required,uuid"`
	ReferenceNumber string            `json:"reference_number"`
	Memo            string            `json:"memo"`
	Lines           []postLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	var req postEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	refID, err := uuid.Parse(req.ReferenceID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Reference", err.Error())
		return
	}
	input := PostingInput{
		TenantID:        scope.TenantID,
		ReferenceType:   ReferenceType(req.ReferenceType),
		ReferenceID:     refID,
		ReferenceNumber: req.ReferenceNumber,
		Memo:            req.Memo,
		CreatedBy:       scope.ActorID,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, PostingLineInput{
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	entry, err := h.service.Post(r.Context(), input)
	h.metrics.ObservePosting(req.ReferenceType, err)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
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
	entry, err := h.service.Get(r.Context(), scope.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	entries, err := h.service.List(r.Context(), scope.TenantID, limit, offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

type reverseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
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
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	reversal, err := h.service.Reverse(r.Context(), ReverseInput{
		TenantID: scope.TenantID,
		EntryID:  id,
		ActorID:  scope.ActorID,
		Reason:   req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}
