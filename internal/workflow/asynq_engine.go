package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqEngine starts executions as asynq tasks whose type is the workflow definition
type AsynqEngine struct {
	client       enqueuer
	definitionID string
	queue        string
	timeout      time.Duration
	maxRetry     int
}

// AsynqOptions tunes the tasks an AsynqEngine enqueues
type AsynqOptions struct {
	Queue    string
	Timeout  time.Duration
	MaxRetry int
}

func NewAsynqEngine(client enqueuer, definitionID string, opts AsynqOptions) *AsynqEngine {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Hour
	}
	return &AsynqEngine{
		client:       client,
		definitionID: definitionID,
		queue:        opts.Queue,
		timeout:      opts.Timeout,
		maxRetry:     opts.MaxRetry,
	}
}

// NewStartTask builds the asynq task for one execution
func NewStartTask(definitionID string, input Input) (*asynq.Task, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow input: %w", err)
	}
	return asynq.NewTask(definitionID, body), nil
}

// ParseStartTask decodes the workflow input carried by task
func ParseStartTask(task *asynq.Task) (Input, error) {
	var input Input
	if err := json.Unmarshal(task.Payload(), &input); err != nil {
		return Input{}, fmt.Errorf("unmarshal workflow input: %w", err)
	}
	return input, nil
}

func (e *AsynqEngine) Start(ctx context.Context, input Input) (string, error) {
	task, err := NewStartTask(e.definitionID, input)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(e.queue),
		asynq.TaskID(input.JobID),
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue workflow task: %w", err)
	}

	return fmt.Sprintf("%s:%s", info.Queue, info.ID), nil
}
