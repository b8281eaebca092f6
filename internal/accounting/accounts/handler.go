package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires chart of accounts endpoints.
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

// observeCodegen counts exhausted generation retries; other errors are the
// caller's problem.
func (h *Handler) observeCodegen(err error) {
	if errors.Is(err, shared.ErrCodeGenerationConflict) {
		h.metrics.ObserveCodegenConflict()
	}
}

// MountRoutes registers HTTP routes for the chart of accounts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/tree", h.handleTree)
	r.Post("/", h.handleCreate)
	r.Post("/generate-code", h.handleGenerateCode)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Post("/{id}/restore", h.handleRestore)
}

type createAccountRequest struct {
	Code               string  `json:"code"`
	Name               string  `json:"name" validate:"required"`
	Type               string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category           string  `json:"category"`
	NormalBalance      string  `json:"normal_balance" validate:"omitempty,oneof=DEBIT CREDIT"`
	ParentID           *int64  `json:"parent_id"`
	AllowDirectPosting bool    `json:"allow_direct_posting"`
	IsProtected        bool    `json:"is_protected"`
	OpeningBalance     float64 `json:"opening_balance"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.Create(r.Context(), CreateInput{
		TenantID:           scope.TenantID,
		Code:               req.Code,
		Name:               req.Name,
		Type:               AccountType(req.Type),
		Category:           req.Category,
		NormalBalance:      NormalBalance(req.NormalBalance),
		ParentID:           req.ParentID,
		AllowDirectPosting: req.AllowDirectPosting,
		IsProtected:        req.IsProtected,
		OpeningBalance:     req.OpeningBalance,
		ActorID:            scope.ActorID,
	})
	if err != nil {
		h.observeCodegen(err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	list, err := h.service.ListActive(r.Context(), scope.TenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	tree, err := h.service.Tree(r.Context(), scope.TenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	account, err := h.service.Get(r.Context(), scope.TenantID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

type updateAccountRequest struct {
	Name               *string `json:"name"`
	Category           *string `json:"category"`
	AllowDirectPosting *bool   `json:"allow_direct_posting"`
	Elevated           bool    `json:"elevated"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	account, err := h.service.Update(r.Context(), UpdateInput{
		TenantID:           scope.TenantID,
		AccountID:          id,
		Name:               req.Name,
		Category:           req.Category,
		AllowDirectPosting: req.AllowDirectPosting,
		Elevated:           req.Elevated,
		ActorID:            scope.ActorID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	elevated := r.URL.Query().Get("elevated") == "true"
	if err := h.service.Delete(r.Context(), DeleteInput{
		TenantID:  scope.TenantID,
		AccountID: id,
		Elevated:  elevated,
		ActorID:   scope.ActorID,
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	account, err := h.service.Restore(r.Context(), scope.TenantID, id, scope.ActorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

type generateCodeRequest struct {
	Type string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
}

func (h *Handler) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	scope, ok := internalShared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, internalShared.ErrMissingScope)
		return
	}
	var req generateCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	code, err := h.service.GenerateCode(r.Context(), scope.TenantID, AccountType(req.Type))
	if err != nil {
		h.observeCodegen(err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
