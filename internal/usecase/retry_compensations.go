package usecase

import (
	"context"
	"log/slog"

	"repair-desk/internal/domain"
)

const defaultRetryBatch = 50

// RetryReport summarises one replay of pending compensations.
type RetryReport struct {
	Processed int
	Completed int
	Failed    int
}

// RetryCompensations replays sign-up rollbacks whose identity deletion failed.
type RetryCompensations struct {
	identity      domain.IdentityProvider
	compensations domain.CompensationLog
	logger        *slog.Logger
}

// NewRetryCompensations creates a new RetryCompensations usecase.
func NewRetryCompensations(ip domain.IdentityProvider, cl domain.CompensationLog, l *slog.Logger) *RetryCompensations {
	return &RetryCompensations{identity: ip, compensations: cl, logger: l}
}

// Execute processes up to limit pending entries. A non-positive limit uses the default batch.
func (uc *RetryCompensations) Execute(ctx context.Context, limit int) (*RetryReport, error) {
	if limit <= 0 {
		limit = defaultRetryBatch
	}

	pending, err := uc.compensations.ListPending(ctx, limit)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to list pending compensations", "error", err)
		return nil, err
	}

	report := &RetryReport{}
	for _, c := range pending {
		report.Processed++

		if err := uc.identity.DeleteIdentity(ctx, c.IdentityID); err != nil {
			report.Failed++
			uc.logger.WarnContext(ctx, "compensation retry failed",
				"compensation_id", c.ID, "identity_id", c.IdentityID, "attempts", c.Attempts+1, "error", err)
			if merr := uc.compensations.MarkFailed(ctx, c.ID, err.Error()); merr != nil {
				uc.logger.ErrorContext(ctx, "failed to update compensation", "compensation_id", c.ID, "error", merr)
			}
			continue
		}

		if err := uc.compensations.MarkDone(ctx, c.ID); err != nil {
			uc.logger.ErrorContext(ctx, "failed to close compensation", "compensation_id", c.ID, "error", err)
		}
		report.Completed++
	}

	if report.Processed > 0 {
		uc.logger.InfoContext(ctx, "compensation replay finished",
			"processed", report.Processed, "completed", report.Completed, "failed", report.Failed)
	}
	return report, nil
}
