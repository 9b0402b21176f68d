package usecase

import (
	"context"
	"log/slog"

	"repair-desk/internal/domain"
)

// CreateTicketInput is the ticket form.
type CreateTicketInput struct {
	Title       string `json:"title" form:"title" validate:"required,min=5"`
	Description string `json:"description" form:"description" validate:"required,min=20"`
	Priority    string `json:"priority" form:"priority" validate:"required,ticket_priority"`
}

// CreateTicket lets a tenant raise a ticket against the unit they occupy.
type CreateTicket struct {
	validator domain.InputValidator
	tickets   domain.TicketStore
	roles     *RoleLookup
	logger    *slog.Logger
}

// NewCreateTicket creates a new CreateTicket usecase.
func NewCreateTicket(v domain.InputValidator, ts domain.TicketStore, roles *RoleLookup, l *slog.Logger) *CreateTicket {
	return &CreateTicket{validator: v, tickets: ts, roles: roles, logger: l}
}

// Unit returns the unit a new ticket from identityID would be filed against.
func (uc *CreateTicket) Unit(ctx context.Context, identityID string) (*domain.Unit, error) {
	if err := uc.requireTenant(ctx, identityID); err != nil {
		return nil, err
	}
	return uc.tickets.UnitForTenant(ctx, identityID)
}

// Execute stores a submitted ticket for identityID.
func (uc *CreateTicket) Execute(ctx context.Context, identityID string, in CreateTicketInput) (*domain.Ticket, error) {
	if err := uc.requireTenant(ctx, identityID); err != nil {
		return nil, err
	}
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}

	unit, err := uc.tickets.UnitForTenant(ctx, identityID)
	if err != nil {
		uc.logger.WarnContext(ctx, "ticket rejected, tenant unit unavailable", "identity_id", identityID, "error", err)
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.TicketSubmitted,
		Priority:    domain.TicketPriority(in.Priority),
		CreatedBy:   identityID,
		PropertyID:  unit.PropertyID,
		UnitID:      unit.ID,
	}
	if err := uc.tickets.CreateTicket(ctx, ticket); err != nil {
		uc.logger.ErrorContext(ctx, "failed to create ticket", "identity_id", identityID, "error", err)
		return nil, err
	}

	uc.logger.InfoContext(ctx, "ticket submitted", "ticket_id", ticket.ID, "priority", ticket.Priority)
	return ticket, nil
}

func (uc *CreateTicket) requireTenant(ctx context.Context, identityID string) error {
	role, err := uc.roles.Resolve(ctx, identityID)
	if err != nil {
		return err
	}
	if role != domain.RoleTenant {
		return domain.ErrForbidden
	}
	return nil
}
