// Package audit maintains the append-only change history of leads.
//
// Every meaningful transition produces exactly one LeadLog row. Both write
// paths (the anonymous public intake and the authenticated admin edit) call
// the Recorder explicitly, passing the acting user when one exists, so the
// same transition can never be logged twice.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of change a log entry records.
type Action string

const (
	ActionCreated       Action = "created"
	ActionStatusChanged Action = "status_changed"
	ActionAssigned      Action = "assigned"
	ActionNoteAdded     Action = "note_added"
	ActionUpdated       Action = "updated"
)

// Display returns the human-readable label for the action.
func (a Action) Display() string {
	switch a {
	case ActionCreated:
		return "Created"
	case ActionStatusChanged:
		return "Status changed"
	case ActionAssigned:
		return "Assigned"
	case ActionNoteAdded:
		return "Note added"
	case ActionUpdated:
		return "Updated"
	default:
		return string(a)
	}
}

// Actor identifies the staff member responsible for a change.
// A nil *Actor means the change originated from an anonymous public
// submission or a system process.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Entry is one immutable audit record tied to a lead. Entries are never
// updated or deleted; they are the sole source of historical truth.
type Entry struct {
	ID        uuid.UUID  `json:"id"`
	LeadID    uuid.UUID  `json:"lead_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Action    Action     `json:"action"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Snapshot captures the watched fields of a lead as display values, taken
// before a mutation so the Recorder can diff against the post-mutation state.
type Snapshot struct {
	Status     string
	AssignedTo string
	Notes      string
}

// Unassigned is the display value used when no staff member is assigned.
const Unassigned = "Unassigned"
