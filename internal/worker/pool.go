package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	jobs "github.com/cuongbtq/video-intake/internal/domain"
	"github.com/cuongbtq/video-intake/internal/worker/domain"
)

// spawnWorkerPool spawns N goroutines draining eventsChan
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, fmt.Sprintf("%s-%d", w.workerID, i))
	}
}

// workerLoop runs until eventsChan is closed so that no dispatched event is left unsettled
func (w *Worker) workerLoop(ctx context.Context, workerName string) {
	defer w.wg.Done()

	for msg := range w.eventsChan {
		err := w.processEvent(ctx, msg.event)
		w.settle(workerName, msg, err)
	}
}

func (w *Worker) settle(workerName string, msg *statusMessage, err error) {
	attrs := []any{
		slog.String("worker_name", workerName),
		slog.String("job_id", msg.event.JobID),
		slog.String("status", msg.event.Status),
	}

	if err == nil {
		if ackErr := msg.delivery.Ack(false); ackErr != nil {
			w.logger.Error("Failed to ACK message", append(attrs, slog.String("error", ackErr.Error()))...)
		}
		return
	}

	requeue := shouldRequeue(err, msg.delivery.Redelivered)
	w.logger.Warn("Status event not applied",
		append(attrs, slog.String("error", err.Error()), slog.Bool("requeue", requeue))...)

	if nackErr := msg.delivery.Nack(false, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message", append(attrs, slog.String("error", nackErr.Error()))...)
	}
}

// shouldRequeue decides whether a failed event is worth another delivery.
// A record that is still missing on redelivery is treated as never written.
func shouldRequeue(err error, redelivered bool) bool {
	if errors.Is(err, jobs.ErrStatusRegression) ||
		errors.Is(err, jobs.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidEvent) {
		return false
	}

	var retryable *domain.RetryableError
	if !errors.As(err, &retryable) {
		return false
	}

	if errors.Is(err, jobs.ErrJobNotFound) && redelivered {
		return false
	}
	return true
}
