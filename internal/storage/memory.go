package storage

import (
	"context"
	"sync"
	"time"

	"github.com/cuongbtq/video-intake/internal/domain"
)

// MemoryStore is an in-process RecordStore for local runs and tests
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.JobRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.JobRecord)}
}

func (s *MemoryStore) Put(_ context.Context, record *domain.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	if existing, ok := s.records[record.JobID]; ok {
		stored.Status = existing.Status
		stored.CreatedAt = existing.CreatedAt
	}
	s.records[record.JobID] = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &record, nil
}

func (s *MemoryStore) AdvanceStatus(_ context.Context, jobID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jobID]
	if !ok {
		if !domain.ValidStatus(status) {
			return domain.ErrInvalidStatus
		}
		return domain.ErrJobNotFound
	}
	if err := domain.CanAdvance(record.Status, status); err != nil {
		return err
	}

	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	s.records[jobID] = record
	return nil
}
