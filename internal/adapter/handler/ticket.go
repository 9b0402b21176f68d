package handler

import (
	"log/slog"
	"net/http"

	"repair-desk/internal/domain"
	"repair-desk/internal/usecase"
	"repair-desk/metrics"

	"github.com/labstack/echo/v4"
)

// CSRFHeader carries the CSRF token on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

// TicketHandler serves /tickets/create.
type TicketHandler struct {
	create *usecase.CreateTicket
	csrf   *usecase.GenerateCSRF
	cookie SessionCookie
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(create *usecase.CreateTicket, csrf *usecase.GenerateCSRF, cookie SessionCookie) *TicketHandler {
	return &TicketHandler{create: create, csrf: csrf, cookie: cookie}
}

type unitResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Number     string `json:"number"`
}

// Form returns the unit a new ticket would be filed against.
func (h *TicketHandler) Form(c echo.Context) error {
	session, err := requireSessionContext(c)
	if err != nil {
		return mapDomainError(err)
	}

	unit, err := h.create.Unit(c.Request().Context(), session.IdentityID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"unit":       unitResponse{ID: unit.ID, PropertyID: unit.PropertyID, Number: unit.Number},
		"priorities": []domain.TicketPriority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent},
	})
}

// Create submits a ticket. The CSRF token may come from the header or the form.
func (h *TicketHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := requireSessionContext(c)
	if err != nil {
		return mapDomainError(err)
	}

	csrfToken := c.Request().Header.Get(CSRFHeader)
	if csrfToken == "" {
		csrfToken = c.FormValue("csrf_token")
	}
	if err := h.csrf.Verify(h.cookie.Token(c), csrfToken); err != nil {
		slog.WarnContext(ctx, "ticket rejected, csrf token mismatch", "remote_addr", c.RealIP())
		return mapDomainError(err)
	}

	var in usecase.CreateTicketInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.create.Execute(ctx, session.IdentityID, in)
	if err != nil {
		return mapDomainError(err)
	}
	metrics.RecordTicket(string(ticket.Priority))

	if wantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, domain.RoleTenant.DashboardPath())
	}
	return c.JSON(http.StatusCreated, toTicketResponse(ticket))
}
