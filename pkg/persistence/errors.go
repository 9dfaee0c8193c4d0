package persistence

import (
	"errors"
	"fmt"
)

// ErrRevisionNotFound indicates the requested revision is not in the
// retained window of a history. Truncated revisions are permanently
// unavailable, not recoverable.
var ErrRevisionNotFound = errors.New("revision not found")

// StoreError wraps storage errors with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g. "ReadState", "WriteHistory")
	Key string // Artifact key if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s failed for key %s: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsRevisionNotFound checks if an error indicates a missing revision.
func IsRevisionNotFound(err error) bool {
	return errors.Is(err, ErrRevisionNotFound)
}
