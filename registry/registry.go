// Package registry tracks every known agent type in one central catalog.
// A Registry is constructed once during process startup, populated by
// explicit Register calls enumerating the host's agent implementations,
// and passed to whatever resolves agent types. It is read-mostly after
// initialization and safe for concurrent use.
package registry

import (
	"fmt"
	"sync"

	"github.com/hupe1980/codemesh/core"
)

// Entry describes one registered agent type.
type Entry struct {
	// AgentType is the unique identifier of the implementation.
	AgentType string
	// Description is the human description shown in discovery listings.
	Description string
	// DisplayName is the label shown for the root task; defaults to
	// AgentType when empty.
	DisplayName string
	// Factory constructs an agent instance of this type.
	Factory core.Factory
}

// Result is the discovery record returned to the client for one registered
// agent type. Icon is reserved for future use.
type Result struct {
	AgentType   string `json:"agent_type"`
	Description string `json:"agent_description"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"agent_icon,omitempty"`
}

// Registry is the catalog mapping agent-type identifiers to their factories
// and descriptive metadata.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string // registration order, for stable listings
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register stores an entry. It fails with ErrDuplicateAgentType if the
// agent type is already present. An empty display name defaults to the
// agent type.
func (r *Registry) Register(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.AgentType]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAgentType, entry.AgentType)
	}

	if entry.DisplayName == "" {
		entry.DisplayName = entry.AgentType
	}

	r.entries[entry.AgentType] = entry
	r.order = append(r.order, entry.AgentType)

	return nil
}

// Lookup returns the entry for the given agent type, or
// ErrAgentTypeNotFound if it is absent.
func (r *Registry) Lookup(agentType string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[agentType]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrAgentTypeNotFound, agentType)
	}

	return entry, nil
}

// DisplayName resolves the display name for an agent type. It implements
// core.DisplayNames for progress snapshot assembly.
func (r *Registry) DisplayName(agentType string) (string, error) {
	entry, err := r.Lookup(agentType)
	if err != nil {
		return "", err
	}
	return entry.DisplayName, nil
}

// List returns a read-only snapshot of all entries as discovery records, in
// registration order.
func (r *Registry) List() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Result, 0, len(r.order))
	for _, agentType := range r.order {
		entry := r.entries[agentType]
		results = append(results, Result{
			AgentType:   entry.AgentType,
			Description: entry.Description,
			DisplayName: entry.DisplayName,
		})
	}

	return results
}
