package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusEvent(t *testing.T) {
	const jobID = "3f2c8a4e-5b7d-4c1e-9a0b-1d2e3f4a5b6c"

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"job_id": "` + jobID + `", "status": "PROCESSING", "execution_id": "video-pipeline:execution:` + jobID + `"}`},
		{name: "terminal status", body: `{"job_id": "` + jobID + `", "status": "COMPLETED"}`},
		{name: "not json", body: `job done`, wantErr: true},
		{name: "job id not a uuid", body: `{"job_id": "42", "status": "PROCESSING"}`, wantErr: true},
		{name: "unknown status", body: `{"job_id": "` + jobID + `", "status": "PAUSED"}`, wantErr: true},
		{name: "missing status", body: `{"job_id": "` + jobID + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseStatusEvent([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidEvent))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, jobID, event.JobID)
		})
	}
}

func TestRetryableError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewRetryableError(cause)

	var retryable *RetryableError
	require.True(t, errors.As(err, &retryable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "retryable error: connection reset", err.Error())
}
