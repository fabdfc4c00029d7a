package models

import (
	"errors"
	"fmt"
)

// Error codes used throughout the pipeline. The code classifies how the
// failure was handled: transient codes were retried before surfacing,
// CLIENT_REJECTED was not, and the run-level codes abort the whole run.
const (
	ErrCodeFetchTimeout    = "FETCH_TIMEOUT"
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeClientRejected  = "CLIENT_REJECTED"
	ErrCodePageNotFound    = "PAGE_NOT_FOUND"
	ErrCodeEmptyInput      = "EMPTY_INPUT"
	ErrCodeArtifactWrite   = "ARTIFACT_WRITE_FAILED"
	ErrCodeArtifactInvalid = "ARTIFACT_INVALID"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// HarvestError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type HarvestError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *HarvestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HarvestError) Unwrap() error {
	return e.Err
}

// NewHarvestError creates a new HarvestError.
func NewHarvestError(code, message string, err error) *HarvestError {
	return &HarvestError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the harvest error code from err, walking the wrap chain.
// Returns ErrCodeInternal for errors that carry no code.
func CodeOf(err error) string {
	var he *HarvestError
	if errors.As(err, &he) {
		return he.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given harvest error code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
