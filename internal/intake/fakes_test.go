package intake

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cuongbtq/video-intake/internal/domain"
	"github.com/cuongbtq/video-intake/internal/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeIdentity struct {
	mu       sync.Mutex
	username string
	err      error
	tokens   []string
}

func (f *fakeIdentity) Resolve(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return "", f.err
	}
	return f.username, nil
}

func (f *fakeIdentity) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeEngine struct {
	mu     sync.Mutex
	handle string
	err    error
	inputs []workflow.Input
	ctxErr error
}

func (f *fakeEngine) Start(ctx context.Context, input workflow.Input) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return "", f.err
	}
	return f.handle, nil
}

type fakeStore struct {
	mu      sync.Mutex
	err     error
	records []domain.JobRecord
	ctxErr  error
}

func (f *fakeStore) Put(ctx context.Context, record *domain.JobRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	f.ctxErr = ctx.Err()
	return f.err
}

type fakeOutcomes struct {
	outcomes []string
}

func (f *fakeOutcomes) RecordAdmission(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}
