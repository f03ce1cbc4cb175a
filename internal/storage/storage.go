// Package storage persists job records.
package storage

import (
	"context"

	"github.com/cuongbtq/video-intake/internal/domain"
)

// RecordStore is the durable home of job records
type RecordStore interface {
	// Put inserts or updates a record keyed by job id. An existing status is kept.
	Put(ctx context.Context, record *domain.JobRecord) error
	Get(ctx context.Context, jobID string) (*domain.JobRecord, error)
	// AdvanceStatus moves a job forward. It never regresses a status.
	AdvanceStatus(ctx context.Context, jobID, status string) error
}
