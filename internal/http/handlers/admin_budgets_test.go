package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgvrzon/arynstal/internal/audit"
	"github.com/cgvrzon/arynstal/internal/budgets"
	"github.com/cgvrzon/arynstal/internal/http/middleware"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

type fakeBudgetStore struct {
	createdReq *budgets.CreateBudgetRequest
	budgets    map[uuid.UUID]*budgets.Budget
	byLead     map[uuid.UUID][]*budgets.Budget
	attached   string
}

func newFakeBudgetStore() *fakeBudgetStore {
	return &fakeBudgetStore{
		budgets: make(map[uuid.UUID]*budgets.Budget),
		byLead:  make(map[uuid.UUID][]*budgets.Budget),
	}
}

func (s *fakeBudgetStore) Create(ctx context.Context, req *budgets.CreateBudgetRequest) (*budgets.Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.createdReq = req
	b := &budgets.Budget{
		ID:          uuid.New(),
		LeadID:      req.LeadID,
		Reference:   "ARYN-2026-001",
		Description: req.Description,
		AmountCents: req.AmountCents,
		Status:      budgets.StatusDraft,
		ValidUntil:  req.ValidUntil,
		CreatedByID: req.CreatedByID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.budgets[b.ID] = b
	s.byLead[b.LeadID] = append(s.byLead[b.LeadID], b)
	return b, nil
}

func (s *fakeBudgetStore) GetByID(ctx context.Context, id uuid.UUID) (*budgets.Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return nil, budgets.ErrBudgetNotFound
	}
	return b, nil
}

func (s *fakeBudgetStore) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*budgets.Budget, error) {
	return s.byLead[leadID], nil
}

func (s *fakeBudgetStore) UpdateStatus(ctx context.Context, id uuid.UUID, status budgets.Status) (*budgets.Budget, error) {
	if !status.Valid() {
		return nil, budgets.ErrInvalidStatus
	}
	b, ok := s.budgets[id]
	if !ok {
		return nil, budgets.ErrBudgetNotFound
	}
	b.Status = status
	return b, nil
}

func (s *fakeBudgetStore) AttachFile(ctx context.Context, id uuid.UUID, filePath string) (*budgets.Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return nil, budgets.ErrBudgetNotFound
	}
	b.FilePath = filePath
	s.attached = filePath
	return b, nil
}

func TestCreateBudgetAssignsCreator(t *testing.T) {
	store := newFakeBudgetStore()
	handler := NewAdminBudgetsHandler(store, nil, logging.Default())

	leadID := uuid.New()
	staffID := uuid.New()
	body := []byte(`{"description": "Reforma integral de cocina", "amount_cents": 1250000}`)

	req := leadRequest(http.MethodPost, "/admin/leads/"+leadID.String()+"/budgets", body,
		map[string]string{"leadID": leadID.String()})
	req = req.WithContext(middleware.WithActor(req.Context(), &audit.Actor{ID: staffID, Name: "María García"}))

	rec := httptest.NewRecorder()
	handler.CreateBudget(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created budgets.Budget
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, leadID, created.LeadID)
	assert.Equal(t, "ARYN-2026-001", created.Reference)
	assert.Equal(t, int64(1250000), created.AmountCents)

	require.NotNil(t, store.createdReq.CreatedByID)
	assert.Equal(t, staffID, *store.createdReq.CreatedByID)
}

func TestCreateBudgetRejectsNonPositiveAmount(t *testing.T) {
	store := newFakeBudgetStore()
	handler := NewAdminBudgetsHandler(store, nil, logging.Default())

	leadID := uuid.New()
	body := []byte(`{"description": "Presupuesto sin importe", "amount_cents": 0}`)

	rec := httptest.NewRecorder()
	handler.CreateBudget(rec, leadRequest(http.MethodPost, "/admin/leads/"+leadID.String()+"/budgets", body,
		map[string]string{"leadID": leadID.String()}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, store.createdReq)
}

func TestListBudgetsByLead(t *testing.T) {
	store := newFakeBudgetStore()
	leadID := uuid.New()
	_, err := store.Create(context.Background(), &budgets.CreateBudgetRequest{
		LeadID:      leadID,
		Description: "Reforma de baño",
		AmountCents: 450000,
	})
	require.NoError(t, err)

	handler := NewAdminBudgetsHandler(store, nil, logging.Default())

	rec := httptest.NewRecorder()
	handler.ListBudgets(rec, leadRequest(http.MethodGet, "/admin/leads/"+leadID.String()+"/budgets", nil,
		map[string]string{"leadID": leadID.String()}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Budgets []*budgets.Budget `json:"budgets"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
}

func TestUpdateBudgetStatus(t *testing.T) {
	store := newFakeBudgetStore()
	b, err := store.Create(context.Background(), &budgets.CreateBudgetRequest{
		LeadID:      uuid.New(),
		Description: "Reforma de baño",
		AmountCents: 450000,
	})
	require.NoError(t, err)

	handler := NewAdminBudgetsHandler(store, nil, logging.Default())

	body := []byte(`{"status": "sent"}`)
	rec := httptest.NewRecorder()
	handler.UpdateBudgetStatus(rec, leadRequest(http.MethodPatch, "/admin/budgets/"+b.ID.String()+"/status", body,
		map[string]string{"budgetID": b.ID.String()}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var updated budgets.Budget
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, budgets.StatusSent, updated.Status)
}

func TestUpdateBudgetStatusRejectsUnknown(t *testing.T) {
	store := newFakeBudgetStore()
	b, err := store.Create(context.Background(), &budgets.CreateBudgetRequest{
		LeadID:      uuid.New(),
		Description: "Reforma de baño",
		AmountCents: 450000,
	})
	require.NoError(t, err)

	handler := NewAdminBudgetsHandler(store, nil, logging.Default())

	body := []byte(`{"status": "archived"}`)
	rec := httptest.NewRecorder()
	handler.UpdateBudgetStatus(rec, leadRequest(http.MethodPatch, "/admin/budgets/"+b.ID.String()+"/status", body,
		map[string]string{"budgetID": b.ID.String()}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachDocumentValidatesPDF(t *testing.T) {
	store := newFakeBudgetStore()
	b, err := store.Create(context.Background(), &budgets.CreateBudgetRequest{
		LeadID:      uuid.New(),
		Description: "Reforma de baño",
		AmountCents: 450000,
	})
	require.NoError(t, err)

	uploads := &fakeUploadStore{}
	handler := NewAdminBudgetsHandler(store, uploads, logging.Default())

	pdf := append([]byte("%PDF-1.7"), bytes.Repeat([]byte{0x03}, 64)...)
	body, contentType := imageForm(t, "documento", "presupuesto.pdf", pdf)

	req := leadRequest(http.MethodPost, "/admin/budgets/"+b.ID.String()+"/document", body.Bytes(),
		map[string]string{"budgetID": b.ID.String()})
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler.AttachDocument(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, uploads.saved, 1)
	assert.Equal(t, uploads.saved[0], store.attached)
}

func TestAttachDocumentRejectsNonPDF(t *testing.T) {
	store := newFakeBudgetStore()
	b, err := store.Create(context.Background(), &budgets.CreateBudgetRequest{
		LeadID:      uuid.New(),
		Description: "Reforma de baño",
		AmountCents: 450000,
	})
	require.NoError(t, err)

	uploads := &fakeUploadStore{}
	handler := NewAdminBudgetsHandler(store, uploads, logging.Default())

	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x04}, 64)...)
	body, contentType := imageForm(t, "documento", "foto.pdf", jpeg)

	req := leadRequest(http.MethodPost, "/admin/budgets/"+b.ID.String()+"/document", body.Bytes(),
		map[string]string{"budgetID": b.ID.String()})
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler.AttachDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uploads.saved)
}

func TestGetBudgetNotFound(t *testing.T) {
	handler := NewAdminBudgetsHandler(newFakeBudgetStore(), nil, logging.Default())

	id := uuid.NewString()
	rec := httptest.NewRecorder()
	handler.GetBudget(rec, leadRequest(http.MethodGet, "/admin/budgets/"+id, nil,
		map[string]string{"budgetID": id}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
