package a2a

import (
	"errors"
	"fmt"
)

// Protocol errors.
var (
	// ErrTargetNotFound indicates the delegation target is not in the
	// directory.
	ErrTargetNotFound = errors.New("a2a: target agent not found in directory")
	// ErrNoRoute indicates the deliverer has no route to the target.
	ErrNoRoute = errors.New("a2a: no route to target")
	// ErrInboxFull indicates the identity's inbox is at capacity.
	ErrInboxFull = errors.New("a2a: inbox full")
)

// DelegationError reports a transport-level delivery failure for an
// already-resolved target.
type DelegationError struct {
	TargetID string
	Err      error
}

// Error implements the error interface.
func (e *DelegationError) Error() string {
	return fmt.Sprintf("a2a: delegation to %s failed: %v", e.TargetID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DelegationError) Unwrap() error {
	return e.Err
}
