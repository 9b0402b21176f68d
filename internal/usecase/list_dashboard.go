package usecase

import (
	"context"
	"log/slog"

	"repair-desk/internal/domain"
)

// Dashboard is the ticket list shown on a role's dashboard.
type Dashboard struct {
	Role    domain.Role
	Tickets []*domain.Ticket
}

// ListDashboard loads the tickets relevant to a user's role.
type ListDashboard struct {
	tickets domain.TicketStore
	roles   *RoleLookup
	logger  *slog.Logger
}

// NewListDashboard creates a new ListDashboard usecase.
func NewListDashboard(ts domain.TicketStore, roles *RoleLookup, l *slog.Logger) *ListDashboard {
	return &ListDashboard{tickets: ts, roles: roles, logger: l}
}

// Execute returns domain.ErrForbidden when dashboardRole is not the user's role.
func (uc *ListDashboard) Execute(ctx context.Context, identityID string, dashboardRole domain.Role) (*Dashboard, error) {
	role, err := uc.roles.Resolve(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if role != dashboardRole {
		uc.logger.InfoContext(ctx, "dashboard role mismatch", "identity_id", identityID, "role", role, "requested", dashboardRole)
		return nil, domain.ErrForbidden
	}

	var tickets []*domain.Ticket
	switch role {
	case domain.RoleTenant:
		tickets, err = uc.tickets.ListCreatedBy(ctx, identityID)
	case domain.RoleVendor:
		tickets, err = uc.tickets.ListAssignedTo(ctx, identityID)
	case domain.RolePropertyManager:
		tickets, err = uc.tickets.ListManagedBy(ctx, identityID)
	default:
		return nil, domain.ErrForbidden
	}
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to load dashboard tickets", "identity_id", identityID, "error", err)
		return nil, err
	}

	return &Dashboard{Role: role, Tickets: tickets}, nil
}
