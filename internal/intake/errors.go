package intake

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an intake failure. Every failure maps to exactly one Kind.
type Kind int

const (
	Unclassified Kind = iota
	MalformedRequest
	MissingFields
	InvalidField
	MissingCredential
	InvalidCredential
	DispatchFailed
	PersistenceFailed
)

func (k Kind) String() string {
	switch k {
	case MalformedRequest:
		return "malformed_request"
	case MissingFields:
		return "missing_fields"
	case InvalidField:
		return "invalid_field"
	case MissingCredential:
		return "missing_credential"
	case InvalidCredential:
		return "invalid_credential"
	case DispatchFailed:
		return "dispatch_failed"
	case PersistenceFailed:
		return "persistence_failed"
	default:
		return "unclassified"
	}
}

// CallerFault reports whether the kind is caused by the request rather than a collaborator
func (k Kind) CallerFault() bool {
	switch k {
	case MalformedRequest, MissingFields, InvalidField, MissingCredential, InvalidCredential:
		return true
	default:
		return false
	}
}

// Error is the tagged failure produced by the intake stages
type Error struct {
	Kind   Kind
	Fields []string // MissingFields
	Field  string   // InvalidField
	Reason string   // MalformedRequest, InvalidField
	Err    error    // underlying collaborator or parse error, never shown to callers
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the caller-facing description of the violated precondition
func (e *Error) Message() string {
	switch e.Kind {
	case MalformedRequest:
		return "Invalid request body: " + e.Reason
	case MissingFields:
		return "Missing required fields: " + strings.Join(e.Fields, ", ")
	case InvalidField:
		return fmt.Sprintf("Invalid field %s: %s", e.Field, e.Reason)
	case MissingCredential:
		return "Authorization token is missing"
	case InvalidCredential:
		return "Invalid token"
	case DispatchFailed:
		return "failed to start workflow"
	case PersistenceFailed:
		return "failed to persist job record"
	default:
		return "unclassified failure"
	}
}

func malformed(reason string, err error) *Error {
	return &Error{Kind: MalformedRequest, Reason: reason, Err: err}
}

func missingFields(fields []string) *Error {
	return &Error{Kind: MissingFields, Fields: fields}
}

func invalidField(name, reason string) *Error {
	return &Error{Kind: InvalidField, Field: name, Reason: reason}
}

// KindOf classifies err. Errors not produced by the intake stages are Unclassified.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return Unclassified
}
