package analysis

import (
	"errors"
	"fmt"
)

// ErrUnknownUnit is returned when the orchestrator is asked to run a unit
// name absent from the registry.
var ErrUnknownUnit = errors.New("unknown analysis unit")

// MissingDependencyError reports a unit asked to compute without a shared
// resource it declared as required.
type MissingDependencyError struct {
	Unit     string
	Resource Resource
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s requires %s but none provided", e.Unit, e.Resource)
}
