package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"repair-desk/internal/usecase"
	"repair-desk/metrics"

	"github.com/labstack/echo/v4"
)

// InternalHandler handles internal service-to-service requests.
type InternalHandler struct {
	uc *usecase.RetryCompensations
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(uc *usecase.RetryCompensations) *InternalHandler {
	return &InternalHandler{uc: uc}
}

type retryResponse struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// HandleRetryCompensations replays pending sign-up rollbacks. ?limit caps the batch.
func (h *InternalHandler) HandleRetryCompensations(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	report, err := h.uc.Execute(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "compensation replay failed", "error", err, "remote_addr", c.RealIP())
		return mapDomainError(err)
	}

	metrics.RecordCompensation("completed", report.Completed)
	metrics.RecordCompensation("failed", report.Failed)
	slog.InfoContext(ctx, "compensation replay requested", "processed", report.Processed, "remote_addr", c.RealIP())

	return c.JSON(http.StatusOK, retryResponse{
		Processed: report.Processed,
		Completed: report.Completed,
		Failed:    report.Failed,
	})
}
