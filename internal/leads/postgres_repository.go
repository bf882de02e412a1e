package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cgvrzon/arynstal/internal/audit"
)

// DB is the pool surface the repository needs. Satisfied by *pgxpool.Pool.
type DB interface {
	audit.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores leads in the relational database. Every mutation
// that touches the audit trail runs inside a transaction so a lead change and
// its log entries commit or roll back together.
type PostgresRepository struct {
	db       DB
	recorder *audit.Recorder
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db DB, recorder *audit.Recorder) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	if recorder == nil {
		panic("leads: audit recorder required")
	}
	return &PostgresRepository{db: db, recorder: recorder}
}

const leadColumns = `id, name, email, phone, location, service_id, message, source, status,
		assigned_to_id, notes, privacy_accepted, ip_address, user_agent,
		preferred_contact, urgency, created_at, updated_at`

// Create inserts a new lead with its images and the creation log entry in one
// transaction.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest, imagePaths []string) (*Lead, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(imagePaths) > MaxImagesPerLead {
		return nil, FieldError("images", "a lead cannot have more than 5 images")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	lead := &Lead{
		ID:               uuid.New(),
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Location:         req.Location,
		ServiceID:        req.ServiceID,
		Message:          req.Message,
		Source:           req.Source,
		Status:           StatusNew,
		PrivacyAccepted:  req.PrivacyAccepted,
		IPAddress:        req.IPAddress,
		UserAgent:        req.UserAgent,
		PreferredContact: req.PreferredContact,
		Urgency:          req.Urgency,
	}

	query := `
		INSERT INTO lead (id, name, email, phone, location, service_id, message, source, status,
			notes, privacy_accepted, ip_address, user_agent, preferred_contact, urgency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Location,
		lead.ServiceID,
		lead.Message,
		lead.Source,
		lead.Status,
		lead.Notes,
		lead.PrivacyAccepted,
		lead.IPAddress,
		lead.UserAgent,
		lead.PreferredContact,
		lead.Urgency,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	for _, path := range imagePaths {
		if _, err := tx.Exec(ctx,
			`INSERT INTO lead_image (id, lead_id, image_path) VALUES ($1, $2, $3)`,
			uuid.New(), lead.ID, path,
		); err != nil {
			return nil, fmt.Errorf("leads: insert image failed: %w", err)
		}
	}

	if err := r.recorder.RecordCreated(ctx, tx, lead.ID, req.Actor, req.Source.Display()); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit create: %w", err)
	}
	return lead, nil
}

// GetByID fetches a lead by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM lead WHERE id = $1`
	return scanLead(r.db.QueryRow(ctx, query, id))
}

// List returns leads matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Urgency != "" {
		args = append(args, filter.Urgency)
		clauses = append(clauses, fmt.Sprintf("urgency = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM lead`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate rows: %w", err)
	}
	return leads, nil
}

// Update applies a partial staff edit. The row is locked for the duration of
// the transaction so the before and after snapshots used for the audit trail
// cannot interleave with a concurrent edit.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams, actor *audit.Actor) (*Lead, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM lead WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	before := audit.Snapshot{
		Status:     lead.Status.Display(),
		AssignedTo: assignedDisplay(ctx, tx, lead.AssignedToID),
		Notes:      lead.Notes,
	}
	prevLocation, prevService, prevUrgency, prevContact := lead.Location, lead.ServiceID, lead.Urgency, lead.PreferredContact

	applyUpdate(lead, params)

	query := `
		UPDATE lead
		SET status = $2, assigned_to_id = $3, notes = $4, location = $5,
			service_id = $6, urgency = $7, preferred_contact = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := tx.QueryRow(ctx, query,
		lead.ID,
		lead.Status,
		lead.AssignedToID,
		lead.Notes,
		lead.Location,
		lead.ServiceID,
		lead.Urgency,
		lead.PreferredContact,
	).Scan(&lead.UpdatedAt); err != nil {
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}

	after := audit.Snapshot{
		Status:     lead.Status.Display(),
		AssignedTo: assignedDisplay(ctx, tx, lead.AssignedToID),
		Notes:      lead.Notes,
	}

	written, err := r.recorder.RecordChanges(ctx, tx, lead.ID, actor, before, after)
	if err != nil {
		return nil, err
	}
	if len(written) == 0 && otherFieldsChanged(lead, prevLocation, prevService, prevUrgency, prevContact) {
		if _, err := r.recorder.Record(ctx, tx, audit.Entry{
			LeadID:   lead.ID,
			UserID:   actorID(actor),
			Action:   audit.ActionUpdated,
			NewValue: "Lead details updated",
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit update: %w", err)
	}
	return lead, nil
}

// AddImage attaches one more image to an existing lead. The parent row is
// locked so two concurrent uploads cannot both slip past the cap.
func (r *PostgresRepository) AddImage(ctx context.Context, leadID uuid.UUID, imagePath string) (*Image, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin add image: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM lead WHERE id = $1 FOR UPDATE`, leadID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: lock lead failed: %w", err)
	}

	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM lead_image WHERE lead_id = $1`, leadID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("leads: count images failed: %w", err)
	}
	if existing >= MaxImagesPerLead {
		return nil, FieldError("images", "a lead cannot have more than 5 images")
	}

	img := &Image{ID: uuid.New(), LeadID: leadID, ImagePath: imagePath}
	if err := tx.QueryRow(ctx,
		`INSERT INTO lead_image (id, lead_id, image_path) VALUES ($1, $2, $3) RETURNING uploaded_at`,
		img.ID, img.LeadID, img.ImagePath,
	).Scan(&img.UploadedAt); err != nil {
		return nil, fmt.Errorf("leads: insert image failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit add image: %w", err)
	}
	return img, nil
}

// ListImages returns a lead's images in upload order.
func (r *PostgresRepository) ListImages(ctx context.Context, leadID uuid.UUID) ([]*Image, error) {
	query := `
		SELECT id, lead_id, image_path, uploaded_at
		FROM lead_image
		WHERE lead_id = $1
		ORDER BY uploaded_at ASC
	`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("leads: list images failed: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.LeadID, &img.ImagePath, &img.UploadedAt); err != nil {
			return nil, fmt.Errorf("leads: scan image: %w", err)
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate images: %w", err)
	}
	return images, nil
}

// Logs returns a lead's audit trail, newest first.
func (r *PostgresRepository) Logs(ctx context.Context, leadID uuid.UUID, limit int) ([]audit.Entry, error) {
	return r.recorder.ListByLead(ctx, r.db, leadID, limit)
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Location,
		&lead.ServiceID,
		&lead.Message,
		&lead.Source,
		&lead.Status,
		&lead.AssignedToID,
		&lead.Notes,
		&lead.PrivacyAccepted,
		&lead.IPAddress,
		&lead.UserAgent,
		&lead.PreferredContact,
		&lead.Urgency,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: scan lead: %w", err)
	}
	return &lead, nil
}

// assignedDisplay resolves an assignment to a staff name for the audit trail.
// A lookup miss falls back to the raw id rather than failing the update.
func assignedDisplay(ctx context.Context, q audit.Querier, id *uuid.UUID) string {
	if id == nil {
		return audit.Unassigned
	}
	var name string
	if err := q.QueryRow(ctx, `SELECT name FROM staff WHERE id = $1`, *id).Scan(&name); err != nil {
		return id.String()
	}
	return name
}

func otherFieldsChanged(lead *Lead, prevLocation string, prevService *uuid.UUID, prevUrgency Urgency, prevContact ContactChannel) bool {
	if lead.Location != prevLocation {
		return true
	}
	if !uuidPtrEqual(lead.ServiceID, prevService) {
		return true
	}
	if lead.Urgency != prevUrgency {
		return true
	}
	return lead.PreferredContact != prevContact
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
