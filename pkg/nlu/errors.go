package nlu

import (
	"fmt"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
)

// ComponentInitializationError wraps a component that could not publish its
// context while an interpreter was being rebuilt.
type ComponentInitializationError struct {
	Component string
	Err       error
}

func (e *ComponentInitializationError) Error() string {
	return fmt.Sprintf("cannot initialize component %q: %v", e.Component, e.Err)
}

func (e *ComponentInitializationError) Is(target error) bool {
	return target == internalerr.ErrComponentInitialization
}

func (e *ComponentInitializationError) Unwrap() error { return e.Err }

// InvalidStateError reports an operation called out of order
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == internalerr.ErrInvalidState
}
