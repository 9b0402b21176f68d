package domain

import "time"

type TicketStatus string

const (
	TicketSubmitted  TicketStatus = "submitted"
	TicketAssigned   TicketStatus = "assigned"
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketCancelled  TicketStatus = "cancelled"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Ticket is a maintenance request raised by a tenant.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CreatedBy   string
	AssignedTo  string
	PropertyID  string
	UnitID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Unit is a rentable unit within a property.
type Unit struct {
	ID         string
	PropertyID string
	TenantID   string
	Number     string
}
