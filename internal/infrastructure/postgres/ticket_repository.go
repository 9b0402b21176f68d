package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"repair-desk/internal/domain"
)

const ticketColumns = `id, title, description, status, priority, created_by,
		COALESCE(assigned_to, ''), property_id, unit_id, created_at, updated_at`

// TicketRepository implements domain.TicketStore for PostgreSQL.
type TicketRepository struct {
	db     DatabaseIface
	logger *slog.Logger
	now    func() time.Time
}

// NewTicketRepository creates a new PostgreSQL ticket repository
func NewTicketRepository(db DatabaseIface, logger *slog.Logger) *TicketRepository {
	return &TicketRepository{
		db:     db,
		logger: logger.With("component", "ticket_repository"),
		now:    time.Now,
	}
}

// UnitForTenant returns the unit occupied by tenantID, or
// domain.ErrNoUnitAssigned when there is none.
func (r *TicketRepository) UnitForTenant(ctx context.Context, tenantID string) (*domain.Unit, error) {
	query := `
		SELECT id, property_id, tenant_id, unit_number
		FROM units
		WHERE tenant_id = $1
		LIMIT 1`

	var u domain.Unit
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&u.ID, &u.PropertyID, &u.TenantID, &u.Number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoUnitAssigned
		}
		return nil, fmt.Errorf("%w: get unit: %w", domain.ErrStoreUnavailable, err)
	}
	return &u, nil
}

// CreateTicket inserts t, assigning an ID and timestamps when unset.
func (r *TicketRepository) CreateTicket(ctx context.Context, t *domain.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, title, description, status, priority, created_by,
			property_id, unit_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	t.UpdatedAt = t.CreatedAt

	_, err := r.db.Exec(ctx, query,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.CreatedBy,
		t.PropertyID, t.UnitID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to insert ticket", "created_by", t.CreatedBy, "error", err)
		return fmt.Errorf("%w: insert ticket: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ListCreatedBy returns tickets raised by userID, newest first.
func (r *TicketRepository) ListCreatedBy(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE created_by = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListAssignedTo returns tickets assigned to userID, newest first.
func (r *TicketRepository) ListAssignedTo(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE assigned_to = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListManagedBy returns tickets on every property managed by managerID, newest first.
func (r *TicketRepository) ListManagedBy(ctx context.Context, managerID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE property_id IN (SELECT id FROM properties WHERE manager_id = $1)
		ORDER BY created_at DESC`
	return r.list(ctx, query, managerID)
}

func (r *TicketRepository) list(ctx context.Context, query string, arg string) ([]*domain.Ticket, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: list tickets: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		var (
			t                domain.Ticket
			status, priority string
		)
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &status, &priority, &t.CreatedBy,
			&t.AssignedTo, &t.PropertyID, &t.UnitID, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.Status = domain.TicketStatus(status)
		t.Priority = domain.TicketPriority(priority)
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate tickets: %w", domain.ErrStoreUnavailable, err)
	}

	return tickets, nil
}
