// Package handlers contains the authenticated admin HTTP API: lead
// management, budgets, audit trails and the stats dashboard.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cgvrzon/arynstal/internal/audit"
	"github.com/cgvrzon/arynstal/internal/budgets"
	"github.com/cgvrzon/arynstal/internal/leads"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses: validation errors become
// 400 with per-field messages, not-found sentinels become 404, everything
// else is a 500 with a generic body.
func writeError(w http.ResponseWriter, err error) {
	var ve *leads.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, leads.ErrLeadNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lead not found"})
	case errors.Is(err, budgets.ErrBudgetNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "budget not found"})
	case errors.Is(err, budgets.ErrAmountNotPositive),
		errors.Is(err, budgets.ErrValidUntilPast),
		errors.Is(err, budgets.ErrDescriptionRequired),
		errors.Is(err, budgets.ErrLeadRequired),
		errors.Is(err, budgets.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toLogEntries(entries []audit.Entry) []logEntry {
	out := make([]logEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntry{
			ID:        e.ID,
			LeadID:    e.LeadID,
			UserID:    e.UserID,
			Action:    string(e.Action),
			Label:     e.Action.Display(),
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
