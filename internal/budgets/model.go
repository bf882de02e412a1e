// Package budgets manages priced proposals (quotes) attached to leads. Each
// budget carries a human-readable reference of the form PREFIX-YEAR-NNN,
// sequential within a calendar year and generated exactly once at first save.
package budgets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a budget.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Display returns the human-readable label for the status.
func (s Status) Display() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusSent:
		return "Sent"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// Budget is a priced proposal belonging to one lead. Amounts are stored in
// cents to avoid floating-point money.
type Budget struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"lead_id"`
	Reference   string     `json:"reference"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	Status      Status     `json:"status"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	FilePath    string     `json:"file_path,omitempty"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateBudgetRequest is the payload for creating a budget. The reference is
// never supplied by the caller; the repository generates it.
type CreateBudgetRequest struct {
	LeadID      uuid.UUID  `json:"lead_id"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	ValidUntil  *time.Time `json:"valid_until"`
	CreatedByID *uuid.UUID `json:"-"`
}

// Validate checks the budget invariants.
func (r *CreateBudgetRequest) Validate() error {
	if r.LeadID == uuid.Nil {
		return ErrLeadRequired
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrDescriptionRequired
	}
	if r.AmountCents <= 0 {
		return ErrAmountNotPositive
	}
	if r.ValidUntil != nil && !r.ValidUntil.After(time.Now()) {
		return ErrValidUntilPast
	}
	return nil
}

// FormatReference builds a reference like ARYN-2026-007.
func FormatReference(prefix string, year, n int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, n)
}

// ReferenceNumber extracts the trailing sequence number from a reference.
func ReferenceNumber(reference string) (int, error) {
	idx := strings.LastIndex(reference, "-")
	if idx < 0 || idx == len(reference)-1 {
		return 0, fmt.Errorf("budgets: malformed reference %q", reference)
	}
	n, err := strconv.Atoi(reference[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("budgets: malformed reference %q: %w", reference, err)
	}
	return n, nil
}
