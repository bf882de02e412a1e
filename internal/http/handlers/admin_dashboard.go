package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/cgvrzon/arynstal/internal/leads"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// AdminDashboardHandler serves the staff dashboard overview.
type AdminDashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewAdminDashboardHandler(db *sql.DB, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{db: db, logger: logger}
}

// DashboardResponse contains the main dashboard metrics.
type DashboardResponse struct {
	Leads   DashboardLeadMetrics   `json:"leads"`
	Budgets DashboardBudgetMetrics `json:"budgets"`
	Audit   DashboardAuditMetrics  `json:"audit"`
}

// DashboardLeadMetrics summarizes the lead pipeline.
type DashboardLeadMetrics struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	NewThisWeek int            `json:"new_this_week"`
	UrgentOpen  int            `json:"urgent_open"`
	Unassigned  int            `json:"unassigned"`
}

// DashboardBudgetMetrics summarizes quoting activity.
type DashboardBudgetMetrics struct {
	Total               int   `json:"total"`
	Pending             int   `json:"pending"`
	AcceptedAmountCents int64 `json:"accepted_amount_cents"`
}

// DashboardAuditMetrics summarizes recent change activity.
type DashboardAuditMetrics struct {
	EventsToday    int `json:"events_today"`
	EventsThisWeek int `json:"events_this_week"`
}

// GetOverview returns the main dashboard overview.
// GET /admin/dashboard
func (h *AdminDashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	today := now.Truncate(24 * time.Hour)

	resp := DashboardResponse{
		Leads: DashboardLeadMetrics{ByStatus: make(map[string]int)},
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM lead GROUP BY status`)
	if err != nil {
		h.logger.Error("dashboard status counts failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			h.logger.Error("dashboard status scan failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		resp.Leads.ByStatus[status] = count
		resp.Leads.Total += count
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("dashboard status counts failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead WHERE created_at >= $1`, weekAgo,
	).Scan(&resp.Leads.NewThisWeek)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead WHERE urgency = $1 AND status NOT IN ($2, $3)`,
		string(leads.UrgencyUrgent), string(leads.StatusClosed), string(leads.StatusDiscarded),
	).Scan(&resp.Leads.UrgentOpen)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead WHERE assigned_to_id IS NULL AND status NOT IN ($1, $2)`,
		string(leads.StatusClosed), string(leads.StatusDiscarded),
	).Scan(&resp.Leads.Unassigned)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget`,
	).Scan(&resp.Budgets.Total)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget WHERE status IN ('draft', 'sent')`,
	).Scan(&resp.Budgets.Pending)

	h.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM budget WHERE status = 'accepted'`,
	).Scan(&resp.Budgets.AcceptedAmountCents)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_log WHERE created_at >= $1`, today,
	).Scan(&resp.Audit.EventsToday)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_log WHERE created_at >= $1`, weekAgo,
	).Scan(&resp.Audit.EventsThisWeek)

	writeJSON(w, http.StatusOK, resp)
}
