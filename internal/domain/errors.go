package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument signals a document that cannot be indexed as given.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrFileNotResolved signals that no file is registered for a document.
	ErrFileNotResolved = errors.New("file not resolved")
	// ErrIO signals an unexpected file read failure.
	ErrIO = errors.New("file io error")
	// ErrProvision signals a failed ingest pipeline create or query.
	ErrProvision = errors.New("pipeline provisioning failed")
	// ErrIndexRequest signals a rejected index or bulk request.
	ErrIndexRequest = errors.New("index request failed")
	// ErrBatchTooLarge signals a bulk request above the configured batch size.
	ErrBatchTooLarge = errors.New("batch too large")
)

// ProvisionError wraps ErrProvision with the pipeline name and the remote error detail.
type ProvisionError struct {
	Pipeline string
	Detail   string
	Err      error
}

func (e *ProvisionError) Error() string {
	msg := fmt.Sprintf("%s: pipeline %q", ErrProvision.Error(), e.Pipeline)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the transport error.
func (e *ProvisionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProvision}
	}
	return []error{ErrProvision, e.Err}
}

// NewProvisionError creates a provisioning error.
func NewProvisionError(pipeline, detail string, err error) error {
	return &ProvisionError{Pipeline: pipeline, Detail: detail, Err: err}
}
