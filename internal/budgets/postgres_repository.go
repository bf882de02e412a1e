package budgets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cgvrzon/arynstal/internal/audit"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// DB is the pool surface the repository needs. Satisfied by *pgxpool.Pool.
type DB interface {
	audit.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

// PostgresRepository stores budgets in the relational database. Reference
// generation runs inside the insert transaction; the UNIQUE constraint on the
// reference column is the backstop when two first-saves race, and the losing
// insert is retried once with a recomputed number.
type PostgresRepository struct {
	db     DB
	prefix string
	logger *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgxpool. prefix is the
// leading segment of generated references, e.g. "ARYN".
func NewPostgresRepository(db DB, prefix string, logger *logging.Logger) *PostgresRepository {
	if db == nil {
		panic("budgets: pgx pool required")
	}
	if prefix == "" {
		prefix = "ARYN"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, prefix: prefix, logger: logger}
}

const budgetColumns = `id, lead_id, reference, description, amount_cents, status,
		valid_until, file_path, created_by_id, created_at, updated_at`

// Create validates the request and inserts a budget with a freshly generated
// reference. A unique-constraint collision on the reference is retried once.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateBudgetRequest) (*Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	budget, err := r.createOnce(ctx, req)
	if isUniqueViolation(err) {
		r.logger.Warn("budget reference collision, retrying", "lead_id", req.LeadID)
		budget, err = r.createOnce(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (r *PostgresRepository) createOnce(ctx context.Context, req *CreateBudgetRequest) (*Budget, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("budgets: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	year := time.Now().Year()
	reference, err := r.nextReference(ctx, tx, year)
	if err != nil {
		return nil, err
	}

	budget := &Budget{
		ID:          uuid.New(),
		LeadID:      req.LeadID,
		Reference:   reference,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Status:      StatusDraft,
		ValidUntil:  req.ValidUntil,
		CreatedByID: req.CreatedByID,
	}

	query := `
		INSERT INTO budget (id, lead_id, reference, description, amount_cents, status, valid_until, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		budget.ID,
		budget.LeadID,
		budget.Reference,
		budget.Description,
		budget.AmountCents,
		budget.Status,
		budget.ValidUntil,
		budget.CreatedByID,
	).Scan(&budget.CreatedAt, &budget.UpdatedAt); err != nil {
		return nil, fmt.Errorf("budgets: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("budgets: commit create: %w", err)
	}
	return budget, nil
}

// nextReference scans the highest existing reference for the year and
// increments its sequence, starting at 1 when the year has none. Ordering by
// length before value keeps the scan correct once a year's sequence outgrows
// the three-digit padding (ARYN-2026-1000 sorts above ARYN-2026-999).
func (r *PostgresRepository) nextReference(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	pattern := fmt.Sprintf("%s-%d-%%", r.prefix, year)

	var max string
	err := tx.QueryRow(ctx,
		`SELECT reference FROM budget WHERE reference LIKE $1 ORDER BY length(reference) DESC, reference DESC LIMIT 1`,
		pattern,
	).Scan(&max)
	if errors.Is(err, pgx.ErrNoRows) {
		return FormatReference(r.prefix, year, 1), nil
	}
	if err != nil {
		return "", fmt.Errorf("budgets: scan max reference: %w", err)
	}

	n, err := ReferenceNumber(max)
	if err != nil {
		return "", err
	}
	return FormatReference(r.prefix, year, n+1), nil
}

// GetByID fetches a budget by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budget WHERE id = $1`
	return scanBudget(r.db.QueryRow(ctx, query, id))
}

// ListByLead returns a lead's budgets, newest first.
func (r *PostgresRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budget WHERE lead_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("budgets: list failed: %w", err)
	}
	defer rows.Close()

	var budgets []*Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("budgets: iterate rows: %w", err)
	}
	return budgets, nil
}

// UpdateStatus moves a budget to a new lifecycle state.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Budget, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	query := `
		UPDATE budget
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + budgetColumns
	return scanBudget(r.db.QueryRow(ctx, query, id, status))
}

// AttachFile records the storage key of the budget's document.
func (r *PostgresRepository) AttachFile(ctx context.Context, id uuid.UUID, filePath string) (*Budget, error) {
	query := `
		UPDATE budget
		SET file_path = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + budgetColumns
	return scanBudget(r.db.QueryRow(ctx, query, id, filePath))
}

func scanBudget(row pgx.Row) (*Budget, error) {
	var b Budget
	if err := row.Scan(
		&b.ID,
		&b.LeadID,
		&b.Reference,
		&b.Description,
		&b.AmountCents,
		&b.Status,
		&b.ValidUntil,
		&b.FilePath,
		&b.CreatedByID,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("budgets: scan budget: %w", err)
	}
	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
