package sequence

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySequenceName = errors.New("empty sequence name")
	ErrExhaustedRetries  = errors.New("exhausted retries")
	ErrSequenceOverflow  = errors.New("sequence overflow")
)

// ExhaustedRetriesError is returned when every attempt of an allocation failed.
// It matches both ErrExhaustedRetries and the error of the last attempt.
type ExhaustedRetriesError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("allocate %s after %d attempts: %v: %v", e.Name, e.Attempts, ErrExhaustedRetries, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() []error {
	return []error{ErrExhaustedRetries, e.Err}
}
