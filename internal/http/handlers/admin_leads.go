package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cgvrzon/arynstal/internal/http/middleware"
	"github.com/cgvrzon/arynstal/internal/leads"
	"github.com/cgvrzon/arynstal/internal/upload"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// AdminLeadsHandler exposes lead management to authenticated staff.
type AdminLeadsHandler struct {
	repo    leads.Repository
	uploads upload.Store
	logger  *logging.Logger
}

func NewAdminLeadsHandler(repo leads.Repository, uploads upload.Store, logger *logging.Logger) *AdminLeadsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLeadsHandler{repo: repo, uploads: uploads, logger: logger}
}

type leadDetailResponse struct {
	Lead   *leads.Lead   `json:"lead"`
	Images []*leads.Image `json:"images"`
	Logs   []logEntry    `json:"logs"`
}

type leadListResponse struct {
	Leads  []*leads.Lead `json:"leads"`
	Count  int           `json:"count"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListLeads handles GET /admin/leads with optional status, urgency and
// pagination query parameters.
func (h *AdminLeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := leads.ListFilter{
		Status:  leads.Status(r.URL.Query().Get("status")),
		Urgency: leads.Urgency(r.URL.Query().Get("urgency")),
		Limit:   parseBoundedInt(r.URL.Query().Get("limit"), 50, 1, 200),
		Offset:  parseBoundedInt(r.URL.Query().Get("offset"), 0, 0, 1<<20),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status"})
		return
	}
	if filter.Urgency != "" && !filter.Urgency.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown urgency"})
		return
	}

	results, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list leads failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leadListResponse{
		Leads:  results,
		Count:  len(results),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetLead handles GET /admin/leads/{leadID} and returns the lead together
// with its images and full audit trail.
func (h *AdminLeadsHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	images, err := h.repo.ListImages(r.Context(), id)
	if err != nil {
		h.logger.Error("list images failed", "lead_id", id, "error", err)
		writeError(w, err)
		return
	}
	logs, err := h.repo.Logs(r.Context(), id, 0)
	if err != nil {
		h.logger.Error("list logs failed", "lead_id", id, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leadDetailResponse{Lead: lead, Images: images, Logs: toLogEntries(logs)})
}

type updateLeadRequest struct {
	Status           *leads.Status         `json:"status"`
	AssignedToID     *uuid.UUID            `json:"assigned_to_id"`
	ClearAssignment  bool                  `json:"clear_assignment"`
	Notes            *string               `json:"notes"`
	Location         *string               `json:"location"`
	ServiceID        *uuid.UUID            `json:"service_id"`
	ClearService     bool                  `json:"clear_service"`
	Urgency          *leads.Urgency        `json:"urgency"`
	PreferredContact *leads.ContactChannel `json:"preferred_contact"`
}

// UpdateLead handles PATCH /admin/leads/{leadID}. Only the fields present in
// the body change; the acting staff member is attributed on every log entry.
func (h *AdminLeadsHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var body updateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	params := leads.UpdateLeadParams{
		Status:           body.Status,
		AssignedToID:     body.AssignedToID,
		ClearAssignment:  body.ClearAssignment,
		Notes:            body.Notes,
		Location:         body.Location,
		ServiceID:        body.ServiceID,
		ClearService:     body.ClearService,
		Urgency:          body.Urgency,
		PreferredContact: body.PreferredContact,
	}

	actor := middleware.ActorFromContext(r.Context())
	lead, err := h.repo.Update(r.Context(), id, params, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// AddImage handles POST /admin/leads/{leadID}/images with a single multipart
// file under the "foto" field. The file is content-validated before storage
// and the five image cap is enforced by the repository.
func (h *AdminLeadsHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	if h.uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "file storage is not configured"})
		return
	}

	file, header, err := r.FormFile("foto")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field \"foto\""})
		return
	}
	defer file.Close()

	if err := upload.ValidateImage(file, header.Filename, header.Size); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	path, err := h.uploads.Save(r.Context(), "leads", header.Filename, file)
	if err != nil {
		h.logger.Error("image upload failed", "lead_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not store file"})
		return
	}

	image, err := h.repo.AddImage(r.Context(), id, path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, image)
}

type logEntry struct {
	ID        uuid.UUID  `json:"id"`
	LeadID    uuid.UUID  `json:"lead_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Action    string     `json:"action"`
	Label     string     `json:"label"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value,omitempty"`
	CreatedAt string     `json:"created_at"`
}

// ListLogs handles GET /admin/leads/{leadID}/logs, newest first.
func (h *AdminLeadsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	limit := parseBoundedInt(r.URL.Query().Get("limit"), 0, 0, 500)

	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	logs, err := h.repo.Logs(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("list logs failed", "lead_id", id, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": toLogEntries(logs)})
}

func parseLeadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid lead id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseBoundedInt(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return def
	}
	if n > max {
		return max
	}
	return n
}
