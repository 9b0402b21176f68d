package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repair-desk/internal/domain"
)

func validTicketInput() CreateTicketInput {
	return CreateTicketInput{
		Title:       "Leaking faucet",
		Description: "The kitchen faucet has been dripping for two days.",
		Priority:    "high",
	}
}

func TestCreateTicket_Success(t *testing.T) {
	env := newTestEnv()
	tenantID := env.register(t, "tenant@example.com", domain.RoleTenant)
	env.tickets.AddProperty("prop-1", "manager-1")
	env.tickets.AddUnit(domain.Unit{ID: "unit-1", PropertyID: "prop-1", TenantID: tenantID, Number: "2C"})
	uc := NewCreateTicket(newValidator(), env.tickets, env.roles, env.logger)

	unit, err := uc.Unit(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, "2C", unit.Number)

	ticket, err := uc.Execute(context.Background(), tenantID, validTicketInput())

	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketSubmitted, ticket.Status)
	assert.Equal(t, domain.PriorityHigh, ticket.Priority)
	assert.Equal(t, "prop-1", ticket.PropertyID)
	assert.Equal(t, "unit-1", ticket.UnitID)
	assert.Equal(t, tenantID, ticket.CreatedBy)
}

func TestCreateTicket_Errors(t *testing.T) {
	env := newTestEnv()
	tenantID := env.register(t, "tenant@example.com", domain.RoleTenant)
	vendorID := env.register(t, "vendor@example.com", domain.RoleVendor)
	uc := NewCreateTicket(newValidator(), env.tickets, env.roles, env.logger)

	t.Run("not a tenant", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), vendorID, validTicketInput())
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("no unit", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), tenantID, validTicketInput())
		assert.True(t, errors.Is(err, domain.ErrNoUnitAssigned))
	})

	t.Run("invalid input", func(t *testing.T) {
		in := CreateTicketInput{Title: "Tap", Description: "too short", Priority: "someday"}
		_, err := uc.Execute(context.Background(), tenantID, in)

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "Title must be at least 5 characters", verr.Fields["title"])
		assert.Equal(t, "Description must be at least 20 characters", verr.Fields["description"])
		assert.Equal(t, "Please select a valid priority", verr.Fields["priority"])
	})
}

func TestListDashboard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tenantID := env.register(t, "tenant@example.com", domain.RoleTenant)
	vendorID := env.register(t, "vendor@example.com", domain.RoleVendor)
	managerID := env.register(t, "pm@example.com", domain.RolePropertyManager)
	env.tickets.AddProperty("prop-1", managerID)

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	first := &domain.Ticket{Title: "first", CreatedBy: tenantID, PropertyID: "prop-1", CreatedAt: base}
	second := &domain.Ticket{Title: "second", CreatedBy: tenantID, PropertyID: "prop-1", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, env.tickets.CreateTicket(ctx, first))
	require.NoError(t, env.tickets.CreateTicket(ctx, second))
	env.tickets.Assign(first.ID, vendorID)

	uc := NewListDashboard(env.tickets, env.roles, env.logger)

	tests := []struct {
		name   string
		userID string
		role   domain.Role
		titles []string
	}{
		{"tenant sees own tickets newest first", tenantID, domain.RoleTenant, []string{"second", "first"}},
		{"vendor sees assigned tickets", vendorID, domain.RoleVendor, []string{"first"}},
		{"manager sees property tickets", managerID, domain.RolePropertyManager, []string{"second", "first"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash, err := uc.Execute(ctx, tt.userID, tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.role, dash.Role)

			var titles []string
			for _, tk := range dash.Tickets {
				titles = append(titles, tk.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}

	t.Run("other role's dashboard is forbidden", func(t *testing.T) {
		_, err := uc.Execute(ctx, tenantID, domain.RoleVendor)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})
}
