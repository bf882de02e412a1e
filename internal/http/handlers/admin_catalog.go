package handlers

import (
	"context"
	"net/http"

	"github.com/cgvrzon/arynstal/internal/services"
	"github.com/cgvrzon/arynstal/internal/staff"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// ServiceCatalog lists the offered services.
type ServiceCatalog interface {
	ListActive(ctx context.Context) ([]*services.Service, error)
}

// StaffRoster lists the staff members leads can be assigned to.
type StaffRoster interface {
	ListActive(ctx context.Context) ([]*staff.Member, error)
}

// AdminCatalogHandler serves the reference data the admin UI needs to
// populate assignment and service dropdowns.
type AdminCatalogHandler struct {
	services ServiceCatalog
	staff    StaffRoster
	logger   *logging.Logger
}

func NewAdminCatalogHandler(svc ServiceCatalog, roster StaffRoster, logger *logging.Logger) *AdminCatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminCatalogHandler{services: svc, staff: roster, logger: logger}
}

// ListServices handles GET /admin/services.
func (h *AdminCatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	items, err := h.services.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list services failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": items})
}

// ListStaff handles GET /admin/staff.
func (h *AdminCatalogHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	members, err := h.staff.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list staff failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": members})
}
