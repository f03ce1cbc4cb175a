// Package workflow dispatches video jobs to the long-running processing workflow.
package workflow

import (
	"fmt"
	"time"
)

// Input is the document a workflow execution starts with
type Input struct {
	JobID     string `json:"job_id"`
	Username  string `json:"user_name"`
	VideoURL  string `json:"video_url"`
	Email     string `json:"email"`
	FrameRate *int   `json:"frame_rate,omitempty"`
}

// StartExecution is the message a workflow runner receives to begin a job
type StartExecution struct {
	ExecutionID  string    `json:"execution_id"`
	DefinitionID string    `json:"definition_id"`
	Input        Input     `json:"input"`
	RequestedAt  time.Time `json:"requested_at"`
}

// ExecutionHandle names the execution of definitionID started for jobID.
// The job id doubles as the execution name, so one job maps to one handle.
func ExecutionHandle(definitionID, jobID string) string {
	return fmt.Sprintf("%s:execution:%s", definitionID, jobID)
}
