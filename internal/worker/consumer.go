package worker

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/video-intake/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// dispatch parses deliveries and hands valid events to the pool
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			event, err := domain.ParseStatusEvent(delivery.Body)
			if err != nil {
				w.logger.Error("Dropping malformed status event",
					slog.String("error", err.Error()),
					slog.String("message_id", delivery.MessageId),
				)
				// malformed events go to the dead-letter exchange, if any
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.eventsChan <- &statusMessage{event: event, delivery: delivery}:
			case <-ctx.Done():
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
