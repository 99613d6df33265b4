package dbcontent

import (
	"errors"
	"fmt"
)

// ErrIncompleteConfig is returned when an operation needs a database
// connection and a space but one of them is missing.
var ErrIncompleteConfig = errors.New("configuration is incomplete")

// Phase names the step of an import in which an error occurred.
type Phase string

const (
	PhaseConfiguration Phase = "configuration"
	PhaseIntrospection Phase = "introspection"
	PhaseGeneration    Phase = "generation"
	PhaseSerialization Phase = "serialization"
	PhaseProvisioning  Phase = "provisioning"
)

// Error is the error returned by every failing operation of this package.
// Err is the underlying cause and can be inspected with errors.Is and
// errors.As.
type Error struct {
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase an error was raised in.
func PhaseOf(err error) (Phase, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase, true
	}
	return "", false
}
