package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"repair-desk/internal/domain"
)

// CompensationRepository implements domain.CompensationLog for PostgreSQL.
type CompensationRepository struct {
	db     DatabaseIface
	logger *slog.Logger
	now    func() time.Time
}

// NewCompensationRepository creates a new PostgreSQL compensation log
func NewCompensationRepository(db DatabaseIface, logger *slog.Logger) *CompensationRepository {
	return &CompensationRepository{
		db:     db,
		logger: logger.With("component", "compensation_repository"),
		now:    time.Now,
	}
}

// Record inserts c as pending, assigning an ID when unset.
func (r *CompensationRepository) Record(ctx context.Context, c *domain.Compensation) error {
	query := `
		INSERT INTO signup_compensations (
			id, identity_id, reason, status, attempts, last_error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = domain.CompensationPending
	c.CreatedAt = r.now().UTC()
	c.UpdatedAt = c.CreatedAt

	_, err := r.db.Exec(ctx, query,
		c.ID, c.IdentityID, c.Reason, string(c.Status), c.Attempts, c.LastError, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record compensation: %w", err)
	}
	return nil
}

// MarkDone closes the compensation with the given id.
func (r *CompensationRepository) MarkDone(ctx context.Context, id string) error {
	query := `
		UPDATE signup_compensations
		SET status = $2, attempts = attempts + 1, last_error = '', updated_at = $3
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, string(domain.CompensationDone), r.now().UTC()); err != nil {
		return fmt.Errorf("mark compensation done: %w", err)
	}
	return nil
}

// MarkFailed records a failed attempt and leaves the compensation pending.
func (r *CompensationRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE signup_compensations
		SET attempts = attempts + 1, last_error = $2, updated_at = $3
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, reason, r.now().UTC()); err != nil {
		return fmt.Errorf("mark compensation failed: %w", err)
	}
	return nil
}

// ListPending returns up to limit pending compensations, oldest first.
func (r *CompensationRepository) ListPending(ctx context.Context, limit int) ([]*domain.Compensation, error) {
	query := `
		SELECT id, identity_id, reason, status, attempts, last_error, created_at, updated_at
		FROM signup_compensations
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, string(domain.CompensationPending), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list compensations: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []*domain.Compensation
	for rows.Next() {
		var (
			c      domain.Compensation
			status string
		)
		if err := rows.Scan(&c.ID, &c.IdentityID, &c.Reason, &status, &c.Attempts, &c.LastError, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan compensation: %w", err)
		}
		c.Status = domain.CompensationStatus(status)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate compensations: %w", domain.ErrStoreUnavailable, err)
	}

	r.logger.DebugContext(ctx, "loaded pending compensations", "count", len(out))
	return out, nil
}
