package intake

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cuongbtq/video-intake/internal/domain"
	"github.com/cuongbtq/video-intake/internal/workflow"
	"github.com/google/uuid"
)

// WorkflowEngine starts one long-running workflow execution and returns its handle
type WorkflowEngine interface {
	Start(ctx context.Context, input workflow.Input) (string, error)
}

// RecordStore persists job records keyed by job id
type RecordStore interface {
	Put(ctx context.Context, record *domain.JobRecord) error
}

// Admitter creates a job: dispatch first, then record.
type Admitter struct {
	engine WorkflowEngine
	store  RecordStore
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

func NewAdmitter(engine WorkflowEngine, store RecordStore, logger *slog.Logger) *Admitter {
	return &Admitter{
		engine: engine,
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Admit dispatches the workflow for a validated request and records the job.
//
// Dispatch and persistence are not transactional. If dispatch fails nothing is written.
// If the write fails after a successful dispatch the execution keeps running with no
// discoverable record; no compensating cancellation is sent to the engine.
func (a *Admitter) Admit(ctx context.Context, owner string, fields Fields) (*domain.JobRecord, error) {
	// A disconnected caller must not stop a write for an already-started workflow.
	ctx = context.WithoutCancel(ctx)

	jobID := a.newID()
	input := workflow.Input{
		JobID:     jobID,
		Username:  owner,
		VideoURL:  fields.SourceURL,
		Email:     fields.Email,
		FrameRate: fields.FrameRate,
	}

	handle, err := a.engine.Start(ctx, input)
	if err == nil && handle == "" {
		err = errors.New("workflow engine returned an empty execution handle")
	}
	if err != nil {
		a.logger.Error("Failed to start workflow",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return nil, &Error{Kind: DispatchFailed, Err: err}
	}

	now := a.now().UTC()
	record := &domain.JobRecord{
		JobID:               jobID,
		Owner:               owner,
		SourceURL:           fields.SourceURL,
		Email:               fields.Email,
		FrameRate:           fields.FrameRate,
		Status:              domain.JobStatusInitiated,
		WorkflowExecutionID: handle,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := a.store.Put(ctx, record); err != nil {
		// TODO: cancel the execution here once the engine exposes a stop call.
		a.logger.Error("Failed to persist job record, workflow execution is orphaned",
			slog.String("job_id", jobID),
			slog.String("workflow_execution_id", handle),
			slog.String("error", err.Error()),
		)
		return nil, &Error{Kind: PersistenceFailed, Err: err}
	}

	a.logger.Info("Job admitted",
		slog.String("job_id", jobID),
		slog.String("owner", owner),
		slog.String("workflow_execution_id", handle),
	)

	return record, nil
}
