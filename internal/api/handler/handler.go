package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/video-intake/internal/domain"
	"github.com/cuongbtq/video-intake/internal/intake"
)

// RecordReader is the read side of the job record store
type RecordReader interface {
	Get(ctx context.Context, jobID string) (*domain.JobRecord, error)
}

// HealthCheck probes one backing service
type HealthCheck func(ctx context.Context) error

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Pipeline     *intake.Pipeline
	Records      RecordReader
	MaxBodyBytes int64
	HealthChecks map[string]HealthCheck
	ServiceName  string
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger       *slog.Logger
	pipeline     *intake.Pipeline
	records      RecordReader
	maxBodyBytes int64
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &JobHandler{
		logger:       deps.Logger,
		pipeline:     deps.Pipeline,
		records:      deps.Records,
		maxBodyBytes: maxBody,
	}
}
