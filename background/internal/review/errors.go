package review

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned when a backend is used without a key.
var ErrNoAPIKey = errors.New("review: API key not configured")

// ErrEmptyCompletion is returned when the service answered without text.
var ErrEmptyCompletion = errors.New("review: empty completion")

// APIError is a structured error returned by the service. Its message is
// reported verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// NetworkError is a transport failure or a non-2xx answer without a
// structured error body.
type NetworkError struct {
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request failed with status %d: %v", e.Status, e.Err)
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }
