package domain

import (
	"encoding/json"
	"fmt"

	jobs "github.com/cuongbtq/video-intake/internal/domain"
	"github.com/google/uuid"
)

// StatusEvent is a status transition reported by the workflow engine
type StatusEvent struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	ExecutionID string `json:"execution_id,omitempty"`
}

// ParseStatusEvent decodes and checks one event body
func ParseStatusEvent(body []byte) (*StatusEvent, error) {
	var event StatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if _, err := uuid.Parse(event.JobID); err != nil {
		return nil, fmt.Errorf("%w: job_id %q is not a UUID", ErrInvalidEvent, event.JobID)
	}
	if !jobs.ValidStatus(event.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, event.Status)
	}
	return &event, nil
}
