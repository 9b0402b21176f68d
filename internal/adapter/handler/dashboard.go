package handler

import (
	"net/http"
	"time"

	"repair-desk/internal/domain"
	"repair-desk/internal/usecase"
	"repair-desk/utils/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves /:role/dashboard.
type DashboardHandler struct {
	uc *usecase.ListDashboard
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(uc *usecase.ListDashboard) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

type ticketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedBy   string    `json:"created_by"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	PropertyID  string    `json:"property_id"`
	UnitID      string    `json:"unit_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTicketResponse(t *domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		PropertyID:  t.PropertyID,
		UnitID:      t.UnitID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type dashboardResponse struct {
	Role    string           `json:"role"`
	Tickets []ticketResponse `json:"tickets"`
}

// Handle lists the tickets for the dashboard named in the path.
func (h *DashboardHandler) Handle(c echo.Context) error {
	role, err := domain.ParseRole(c.Param("role"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "dashboard not found")
	}

	session, err := requireSessionContext(c)
	if err != nil {
		return mapDomainError(err)
	}

	ctx := logger.WithRole(c.Request().Context(), role.String())
	dashboard, err := h.uc.Execute(ctx, session.IdentityID, role)
	if err != nil {
		return mapDomainError(err)
	}

	resp := dashboardResponse{Role: dashboard.Role.String(), Tickets: make([]ticketResponse, 0, len(dashboard.Tickets))}
	for _, t := range dashboard.Tickets {
		resp.Tickets = append(resp.Tickets, toTicketResponse(t))
	}
	return c.JSON(http.StatusOK, resp)
}
