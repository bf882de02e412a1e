package audit

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cgvrzon/arynstal/pkg/logging"
)

// maxValueLen bounds the old/new value snapshots stored on a log entry.
const maxValueLen = 100

// Querier is the subset of pgx operations the Recorder needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so callers can record entries inside
// their own transactions: a failed log write then rolls the primary mutation
// back, keeping the audit trail complete.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Recorder writes immutable lead audit entries.
type Recorder struct {
	logger *logging.Logger
}

// NewRecorder creates an audit recorder.
func NewRecorder(logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{logger: logger}
}

// Record inserts a single entry.
func (r *Recorder) Record(ctx context.Context, q Querier, e Entry) (Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.OldValue = truncate(e.OldValue, maxValueLen)
	e.NewValue = truncate(e.NewValue, maxValueLen)

	query := `
		INSERT INTO lead_log (id, lead_id, user_id, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, query,
		e.ID, e.LeadID, e.UserID, e.Action, e.OldValue, e.NewValue, e.CreatedAt,
	); err != nil {
		return Entry{}, fmt.Errorf("audit: insert log entry: %w", err)
	}
	return e, nil
}

// RecordCreated writes the creation entry for a new lead. actor is nil for
// public web submissions; sourceLabel names the channel the lead came from.
func (r *Recorder) RecordCreated(ctx context.Context, q Querier, leadID uuid.UUID, actor *Actor, sourceLabel string) error {
	e := Entry{
		LeadID:   leadID,
		UserID:   actorID(actor),
		Action:   ActionCreated,
		NewValue: fmt.Sprintf("Lead created from %s", sourceLabel),
	}
	if _, err := r.Record(ctx, q, e); err != nil {
		return err
	}
	r.logger.Info("lead creation logged", "lead_id", leadID, "source", sourceLabel, "attributed", actor != nil)
	return nil
}

// RecordChanges diffs the watched fields between the pre- and post-mutation
// snapshots and writes one entry per changed field. It returns the entries
// written. When nothing watched changed but other fields did, callers may
// record a generic ActionUpdated entry themselves.
func (r *Recorder) RecordChanges(ctx context.Context, q Querier, leadID uuid.UUID, actor *Actor, before, after Snapshot) ([]Entry, error) {
	var written []Entry

	if before.Status != after.Status {
		e, err := r.Record(ctx, q, Entry{
			LeadID:   leadID,
			UserID:   actorID(actor),
			Action:   ActionStatusChanged,
			OldValue: before.Status,
			NewValue: after.Status,
		})
		if err != nil {
			return written, err
		}
		written = append(written, e)
	}

	if before.AssignedTo != after.AssignedTo {
		e, err := r.Record(ctx, q, Entry{
			LeadID:   leadID,
			UserID:   actorID(actor),
			Action:   ActionAssigned,
			OldValue: before.AssignedTo,
			NewValue: after.AssignedTo,
		})
		if err != nil {
			return written, err
		}
		written = append(written, e)
	}

	if before.Notes != after.Notes && after.Notes != "" {
		e, err := r.Record(ctx, q, Entry{
			LeadID:   leadID,
			UserID:   actorID(actor),
			Action:   ActionNoteAdded,
			OldValue: before.Notes,
			NewValue: after.Notes,
		})
		if err != nil {
			return written, err
		}
		written = append(written, e)
	}

	if len(written) > 0 {
		r.logger.Info("lead changes logged", "lead_id", leadID, "entries", len(written), "attributed", actor != nil)
	}
	return written, nil
}

// ListByLead returns the audit trail for a lead, newest first.
func (r *Recorder) ListByLead(ctx context.Context, q Querier, leadID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, lead_id, user_id, action, old_value, new_value, created_at
		FROM lead_log
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.UserID, &e.Action, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate log entries: %w", err)
	}
	return entries, nil
}

func actorID(a *Actor) *uuid.UUID {
	if a == nil {
		return nil
	}
	id := a.ID
	return &id
}

// truncate counts runes so multi-byte characters are never split.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
