package postgres

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repair-desk/internal/domain"
)

func createTestProfileRepository(t *testing.T) (*ProfileRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	repo := NewProfileRepository(mockDB, slog.Default())
	repo.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mockDB
}

func TestProfileRepository_InsertProfile(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setupDB func(pgxmock.PgxPoolIface)
		wantErr bool
	}{
		{
			name: "successful insert",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectExec("INSERT INTO profiles").
					WithArgs("id-1", "Jo Tenant", "jo@example.com", "tenant", createdAt, createdAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "database error",
			setupDB: func(mockDB pgxmock.PgxPoolIface) {
				mockDB.ExpectExec("INSERT INTO profiles").
					WithArgs("id-1", "Jo Tenant", "jo@example.com", "tenant", createdAt, createdAt).
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestProfileRepository(t)
			tt.setupDB(mockDB)

			err := repo.InsertProfile(context.Background(), &domain.Profile{
				ID:       "id-1",
				FullName: "Jo Tenant",
				Email:    "jo@example.com",
				Role:     domain.RoleTenant,
			})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestProfileRepository_GetProfile(t *testing.T) {
	ts := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mockDB := createTestProfileRepository(t)
		mockDB.ExpectQuery("SELECT(.+)FROM profiles WHERE id").
			WithArgs("id-2").
			WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "email", "role", "created_at", "updated_at"}).
				AddRow("id-2", "Val Vendor", "val@example.com", "vendor", ts, ts))

		p, err := repo.GetProfile(context.Background(), "id-2")

		require.NoError(t, err)
		assert.Equal(t, domain.RoleVendor, p.Role)
		assert.Equal(t, "Val Vendor", p.FullName)
		assert.Equal(t, ts, p.CreatedAt)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mockDB := createTestProfileRepository(t)
		mockDB.ExpectQuery("SELECT(.+)FROM profiles WHERE id").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		p, err := repo.GetProfile(context.Background(), "missing")

		assert.Nil(t, p)
		assert.True(t, errors.Is(err, domain.ErrProfileNotFound))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("connection failure", func(t *testing.T) {
		repo, mockDB := createTestProfileRepository(t)
		mockDB.ExpectQuery("SELECT(.+)FROM profiles WHERE id").
			WithArgs("id-3").
			WillReturnError(pgx.ErrTxClosed)

		_, err := repo.GetProfile(context.Background(), "id-3")

		assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
		assert.False(t, errors.Is(err, domain.ErrProfileNotFound))
	})
}
