package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"repair-desk/internal/domain"
)

// ProfileRepository implements domain.ProfileStore for PostgreSQL.
type ProfileRepository struct {
	db     DatabaseIface
	logger *slog.Logger
	now    func() time.Time
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db DatabaseIface, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger.With("component", "profile_repository"),
		now:    time.Now,
	}
}

// InsertProfile stores p. CreatedAt and UpdatedAt are set when zero.
func (r *ProfileRepository) InsertProfile(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, full_name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := r.db.Exec(ctx, query, p.ID, p.FullName, p.Email, string(p.Role), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to insert profile", "profile_id", p.ID, "error", err)
		return fmt.Errorf("insert profile: %w", err)
	}

	r.logger.DebugContext(ctx, "profile created", "profile_id", p.ID, "role", p.Role)
	return nil
}

// GetProfile returns domain.ErrProfileNotFound when no row matches identityID.
func (r *ProfileRepository) GetProfile(ctx context.Context, identityID string) (*domain.Profile, error) {
	query := `
		SELECT id, full_name, email, role, created_at, updated_at
		FROM profiles
		WHERE id = $1`

	var (
		p    domain.Profile
		role string
	)
	err := r.db.QueryRow(ctx, query, identityID).Scan(
		&p.ID, &p.FullName, &p.Email, &role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: get profile: %w", domain.ErrStoreUnavailable, err)
	}
	p.Role = domain.Role(role)

	return &p, nil
}
