// Package staff is the directory of back-office users: assignment targets for
// leads and actors on the audit trail.
package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cgvrzon/arynstal/internal/audit"
)

// ErrStaffNotFound is returned when a staff member is not found
var ErrStaffNotFound = errors.New("staff member not found")

// Member is one staff directory entry.
type Member struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Active bool      `json:"active"`
}

// Actor converts a member into an audit actor.
func (m *Member) Actor() *audit.Actor {
	return &audit.Actor{ID: m.ID, Name: m.Name}
}

// PostgresRepository reads the staff directory.
type PostgresRepository struct {
	db audit.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db audit.Querier) *PostgresRepository {
	if db == nil {
		panic("staff: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// GetByID fetches one staff member.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	var m Member
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, role, active FROM staff WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("staff: select failed: %w", err)
	}
	return &m, nil
}

// ListActive returns active staff ordered by name.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Member, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, role, active FROM staff WHERE active = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("staff: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Active); err != nil {
			return nil, fmt.Errorf("staff: scan member: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate rows: %w", err)
	}
	return out, nil
}
