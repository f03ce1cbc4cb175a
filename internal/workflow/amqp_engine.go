package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/video-intake/shared/rabbitmq"
)

type publisher interface {
	PublishWithRetry(ctx context.Context, msg rabbitmq.Message) error
}

// AMQPEngine starts executions by publishing StartExecution messages to the
// workflow exchange. Publish retries are the broker client's policy.
type AMQPEngine struct {
	publisher    publisher
	definitionID string
	logger       *slog.Logger
	now          func() time.Time
}

func NewAMQPEngine(pub publisher, definitionID string, logger *slog.Logger) *AMQPEngine {
	return &AMQPEngine{
		publisher:    pub,
		definitionID: definitionID,
		logger:       logger,
		now:          time.Now,
	}
}

func (e *AMQPEngine) Start(ctx context.Context, input Input) (string, error) {
	handle := ExecutionHandle(e.definitionID, input.JobID)

	body, err := json.Marshal(StartExecution{
		ExecutionID:  handle,
		DefinitionID: e.definitionID,
		Input:        input,
		RequestedAt:  e.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal start execution: %w", err)
	}

	err = e.publisher.PublishWithRetry(ctx, rabbitmq.Message{
		RoutingKey:  e.definitionID,
		MessageID:   handle,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start execution: %w", err)
	}

	e.logger.Debug("Workflow execution requested",
		slog.String("job_id", input.JobID),
		slog.String("execution_id", handle),
	)

	return handle, nil
}
