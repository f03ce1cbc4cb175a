package intake

import (
	"errors"
	"net/http"

	"github.com/cuongbtq/video-intake/internal/domain"
)

// GenericFailureMessage is returned for every operator-side failure
const GenericFailureMessage = "An unexpected error occurred. Please try again later."

// Envelope is the response handed back to the transport
type Envelope struct {
	StatusCode int            `json:"statusCode"`
	Body       map[string]any `json:"body"`
}

// Shape maps the terminal outcome of a request to its envelope.
// Collaborator failures never leak their detail into the body.
func Shape(record *domain.JobRecord, err error) Envelope {
	if err == nil {
		if record == nil {
			return failure(http.StatusInternalServerError, GenericFailureMessage)
		}
		return Envelope{StatusCode: http.StatusOK, Body: successBody(record)}
	}

	var ie *Error
	if !errors.As(err, &ie) {
		return failure(http.StatusInternalServerError, GenericFailureMessage)
	}

	switch ie.Kind {
	case MalformedRequest, MissingFields, InvalidField, MissingCredential, InvalidCredential:
		return failure(http.StatusBadRequest, ie.Message())
	case DispatchFailed, PersistenceFailed, Unclassified:
		return failure(http.StatusInternalServerError, GenericFailureMessage)
	default:
		return failure(http.StatusInternalServerError, GenericFailureMessage)
	}
}

func successBody(record *domain.JobRecord) map[string]any {
	body := map[string]any{
		"job_id":                record.JobID,
		"user_name":             record.Owner,
		"email":                 record.Email,
		"video_url":             record.SourceURL,
		"status":                record.Status,
		"workflow_execution_id": record.WorkflowExecutionID,
	}
	if record.FrameRate != nil {
		body["frame_rate"] = *record.FrameRate
	}
	return body
}

func failure(code int, message string) Envelope {
	return Envelope{StatusCode: code, Body: map[string]any{"message": message}}
}
