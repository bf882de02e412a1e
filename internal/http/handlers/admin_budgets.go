package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cgvrzon/arynstal/internal/budgets"
	"github.com/cgvrzon/arynstal/internal/http/middleware"
	"github.com/cgvrzon/arynstal/internal/upload"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// BudgetStore is the persistence surface the budget endpoints need.
type BudgetStore interface {
	Create(ctx context.Context, req *budgets.CreateBudgetRequest) (*budgets.Budget, error)
	GetByID(ctx context.Context, id uuid.UUID) (*budgets.Budget, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*budgets.Budget, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status budgets.Status) (*budgets.Budget, error)
	AttachFile(ctx context.Context, id uuid.UUID, filePath string) (*budgets.Budget, error)
}

// AdminBudgetsHandler manages quotes attached to leads.
type AdminBudgetsHandler struct {
	store   BudgetStore
	uploads upload.Store
	logger  *logging.Logger
}

func NewAdminBudgetsHandler(store BudgetStore, uploads upload.Store, logger *logging.Logger) *AdminBudgetsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBudgetsHandler{store: store, uploads: uploads, logger: logger}
}

type createBudgetRequest struct {
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	ValidUntil  *time.Time `json:"valid_until"`
}

// CreateBudget handles POST /admin/leads/{leadID}/budgets. The reference is
// assigned server-side and is unique per year.
func (h *AdminBudgetsHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	leadID, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var body createBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	req := &budgets.CreateBudgetRequest{
		LeadID:      leadID,
		Description: body.Description,
		AmountCents: body.AmountCents,
		ValidUntil:  body.ValidUntil,
	}
	if actor := middleware.ActorFromContext(r.Context()); actor != nil {
		req.CreatedByID = &actor.ID
	}

	budget, err := h.store.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create budget failed", "lead_id", leadID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

// ListBudgets handles GET /admin/leads/{leadID}/budgets, newest first.
func (h *AdminBudgetsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	leadID, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	results, err := h.store.ListByLead(r.Context(), leadID)
	if err != nil {
		h.logger.Error("list budgets failed", "lead_id", leadID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": results, "count": len(results)})
}

// GetBudget handles GET /admin/budgets/{budgetID}.
func (h *AdminBudgetsHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBudgetID(w, r)
	if !ok {
		return
	}
	budget, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

type updateBudgetStatusRequest struct {
	Status budgets.Status `json:"status"`
}

// UpdateBudgetStatus handles PATCH /admin/budgets/{budgetID}/status.
func (h *AdminBudgetsHandler) UpdateBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBudgetID(w, r)
	if !ok {
		return
	}

	var body updateBudgetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	budget, err := h.store.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

// AttachDocument handles POST /admin/budgets/{budgetID}/document with a
// single multipart PDF under the "documento" field.
func (h *AdminBudgetsHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBudgetID(w, r)
	if !ok {
		return
	}
	if h.uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "file storage is not configured"})
		return
	}

	file, header, err := r.FormFile("documento")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field \"documento\""})
		return
	}
	defer file.Close()

	if err := upload.ValidateDocument(file, header.Filename, header.Size); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	path, err := h.uploads.Save(r.Context(), "budgets", header.Filename, file)
	if err != nil {
		h.logger.Error("budget document upload failed", "budget_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not store file"})
		return
	}

	budget, err := h.store.AttachFile(r.Context(), id, path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func parseBudgetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "budgetID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid budget id"})
		return uuid.Nil, false
	}
	return id, true
}
