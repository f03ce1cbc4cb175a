package domain

import (
	"errors"
	"time"
)

// Job status constants. Transitions past INITIATED belong to the workflow.
const (
	JobStatusInitiated  = "INITIATED"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

var (
	// ErrJobNotFound is returned when a job record does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrStatusRegression is returned when a status change would move a job backwards
	ErrStatusRegression = errors.New("job status cannot move backwards")

	// ErrInvalidStatus is returned for status values outside the known set
	ErrInvalidStatus = errors.New("invalid job status")
)

var statusRank = map[string]int{
	JobStatusInitiated:  0,
	JobStatusProcessing: 1,
	JobStatusCompleted:  2,
	JobStatusFailed:     2,
}

// JobRecord is the persisted state of one admitted video job
type JobRecord struct {
	JobID               string    `db:"job_id" json:"job_id"`
	Owner               string    `db:"owner" json:"user_name"`
	SourceURL           string    `db:"source_url" json:"video_url"`
	Email               string    `db:"email" json:"email"`
	FrameRate           *int      `db:"frame_rate" json:"frame_rate,omitempty"`
	Status              string    `db:"status" json:"status"`
	WorkflowExecutionID string    `db:"workflow_execution_id" json:"workflow_execution_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ValidStatus reports whether status is one of the known job statuses
func ValidStatus(status string) bool {
	_, ok := statusRank[status]
	return ok
}

// IsTerminal reports whether no further transitions are allowed from status
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// CanAdvance reports whether a job may move from current to next.
// Re-applying the current status is allowed so redelivered events are harmless.
func CanAdvance(current, next string) error {
	nextRank, ok := statusRank[next]
	if !ok {
		return ErrInvalidStatus
	}
	currentRank, ok := statusRank[current]
	if !ok {
		return ErrInvalidStatus
	}
	if current == next {
		return nil
	}
	if IsTerminal(current) || nextRank <= currentRank {
		return ErrStatusRegression
	}
	return nil
}

// PredecessorsOf lists the statuses from which next may be reached, including next itself.
func PredecessorsOf(next string) []string {
	var out []string
	for _, s := range []string{JobStatusInitiated, JobStatusProcessing, JobStatusCompleted, JobStatusFailed} {
		if CanAdvance(s, next) == nil {
			out = append(out, s)
		}
	}
	return out
}
