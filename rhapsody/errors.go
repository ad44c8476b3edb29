package rhapsody

import (
	"fmt"
)

// SubmissionError is returned when the engine did not accept a test request.
type SubmissionError struct {
	ComponentID string
	StatusCode  int
	Status      string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("unexpected test response status for component %s: %s", e.ComponentID, e.Status)
}

// PollTransportError is returned when a status check could not be completed.
// Message holds the engine's own error message when it sent one.
type PollTransportError struct {
	Location   string
	StatusCode int
	Message    string
	Err        error
}

func (e *PollTransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to check test status at %s: %s", e.Location, e.Err)
	}
	return fmt.Sprintf("unexpected status response from %s: %d", e.Location, e.StatusCode)
}

func (e *PollTransportError) Unwrap() error {
	return e.Err
}
