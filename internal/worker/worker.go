// Package worker applies workflow status events to job records.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/video-intake/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusStore is the part of the record store the worker writes through
type StatusStore interface {
	AdvanceStatus(ctx context.Context, jobID, status string) error
}

// DeliverySource yields broker deliveries with manual acknowledgement
type DeliverySource interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	Store        StatusStore
	Source       DeliverySource
	WorkerID     string
	Concurrency  int
	EventTimeout time.Duration
}

// Worker consumes status events with a bounded goroutine pool
type Worker struct {
	logger       *slog.Logger
	store        StatusStore
	source       DeliverySource
	workerID     string
	concurrency  int
	eventTimeout time.Duration
	eventsChan   chan *statusMessage
	wg           sync.WaitGroup
}

// statusMessage pairs a parsed event with the delivery it must settle
type statusMessage struct {
	event    *domain.StatusEvent
	delivery amqp.Delivery
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := max(cfg.Concurrency, 1)
	timeout := cfg.EventTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "status-worker"
	}

	return &Worker{
		logger:       cfg.Logger,
		store:        cfg.Store,
		source:       cfg.Source,
		workerID:     workerID,
		concurrency:  concurrency,
		eventTimeout: timeout,
		eventsChan:   make(chan *statusMessage, concurrency),
	}
}

// Start consumes until ctx is canceled or the delivery channel closes.
// It returns once every in-flight event has been settled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting status worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
	)

	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.dispatch(ctx, deliveries)

	close(w.eventsChan)
	w.wg.Wait()

	w.logger.Info("Status worker stopped", slog.String("worker_id", w.workerID))
	return nil
}
