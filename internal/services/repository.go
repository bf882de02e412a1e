// Package services holds the catalog of work categories a lead can point at
// (bathroom reform, kitchen reform, and so on). Reference data, managed out
// of band.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cgvrzon/arynstal/internal/audit"
)

// ErrServiceNotFound is returned when a service is not found
var ErrServiceNotFound = errors.New("service not found")

// Service is one catalog entry.
type Service struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Active bool      `json:"active"`
}

// PostgresRepository reads the service catalog.
type PostgresRepository struct {
	db audit.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db audit.Querier) *PostgresRepository {
	if db == nil {
		panic("services: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// ListActive returns the active catalog entries ordered by name.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Service, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, slug, active FROM service WHERE active = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("services: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Active); err != nil {
			return nil, fmt.Errorf("services: scan service: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("services: iterate rows: %w", err)
	}
	return out, nil
}

// GetByID fetches one catalog entry.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx,
		`SELECT id, name, slug, active FROM service WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("services: select failed: %w", err)
	}
	return &s, nil
}
