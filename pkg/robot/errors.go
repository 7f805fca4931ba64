package robot

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotConnected is returned when the robot bridge cannot be reached.
	ErrNotConnected = errors.New("robot: not connected")

	// ErrCommandDropped is returned when the command buffer is full.
	ErrCommandDropped = errors.New("robot: command buffer full, command dropped")
)

// APIError represents an error response from the robot bridge.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Path is the bridge endpoint that failed.
	Path string

	// Message is the response body, if any.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("robot: %s returned %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("robot: %s returned %d", e.Path, e.StatusCode)
}

// IsNotFound returns true if the endpoint was not found (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsConflict returns true if the robot refused because another behavior
// holds control (HTTP 409).
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
