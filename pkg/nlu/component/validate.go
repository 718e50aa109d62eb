package component

import (
	"fmt"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
)

// MissingArgumentError reports a component whose requirement no earlier
// component or context key satisfies.
type MissingArgumentError struct {
	Component string
	Argument  string
}

func (e *MissingArgumentError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("missing argument: %s", e.Argument)
	}
	return fmt.Sprintf("failed to validate at component %q: missing property %q", e.Component, e.Argument)
}

func (e *MissingArgumentError) Is(target error) bool {
	return target == internalerr.ErrMissingArgument
}

// ValidateArguments checks every component's requirements against the keys
// of shared plus what its predecessors provide. An empty pipeline is invalid.
func ValidateArguments(pipeline []Component, shared Context) error {
	if len(pipeline) == 0 {
		return fmt.Errorf("%w: cannot train an empty pipeline", internalerr.ErrInvalidConfig)
	}

	provided := make(map[string]struct{}, len(shared))
	for k := range shared {
		provided[k] = struct{}{}
	}

	for _, c := range pipeline {
		for _, req := range c.Requires() {
			if _, ok := provided[req]; !ok {
				return &MissingArgumentError{Component: c.Name(), Argument: req}
			}
		}
		for _, p := range c.Provides() {
			provided[p] = struct{}{}
		}
	}
	return nil
}

// RequireKey returns the value of key, or a MissingArgumentError naming
// component when it is absent.
func RequireKey(shared Context, component, key string) (any, error) {
	v, ok := shared[key]
	if !ok {
		return nil, &MissingArgumentError{Component: component, Argument: key}
	}
	return v, nil
}
