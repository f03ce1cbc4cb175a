package worker

import (
	"context"
	"errors"
	"log/slog"

	jobs "github.com/cuongbtq/video-intake/internal/domain"
	"github.com/cuongbtq/video-intake/internal/worker/domain"
)

// processEvent applies one status transition
func (w *Worker) processEvent(ctx context.Context, event *domain.StatusEvent) error {
	// settle in-flight events even while shutting down
	eventCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.eventTimeout)
	defer cancel()

	err := w.store.AdvanceStatus(eventCtx, event.JobID, event.Status)
	switch {
	case err == nil:
		w.logger.Info("Job status advanced",
			slog.String("job_id", event.JobID),
			slog.String("status", event.Status),
			slog.String("execution_id", event.ExecutionID),
		)
		return nil
	case errors.Is(err, jobs.ErrStatusRegression), errors.Is(err, jobs.ErrInvalidStatus):
		return err
	default:
		// not found: the intake writes the record only after dispatch
		return domain.NewRetryableError(err)
	}
}
