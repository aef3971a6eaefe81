package registry

import "fmt"

var (
	// ErrDuplicateAgentType is returned when registering an agent type that
	// is already present in the registry.
	ErrDuplicateAgentType = fmt.Errorf("agent type already registered")

	// ErrAgentTypeNotFound is returned when looking up an agent type that
	// has not been registered.
	ErrAgentTypeNotFound = fmt.Errorf("agent type not found")
)
