package core

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hupe1980/codemesh/logging"
)

// ErrAgentCancelled is the cancellation signal raised to an agent
// implementation's own call site after a failed input round trip has
// cancelled the whole agent.
var ErrAgentCancelled = errors.New("agent cancelled")

// RunFunc is an agent implementation's run coroutine, wrapped by the
// supervisor in the root task.
type RunFunc func(ctx context.Context) (any, error)

// Agent is a supervisor instance representing one running invocation of an
// agent-type implementation.
type Agent interface {
	// Type returns the agent-type identifier, fixed per implementation.
	Type() string

	// ID returns the instance identifier assigned at creation.
	ID() string

	// Main is the single externally invoked lifecycle entry point. It wraps
	// the implementation's run in the root task, emits progress snapshots
	// around it and returns the run result.
	Main(ctx context.Context) (any, error)

	// Cancel cancels the root task and every registered subtask. It is
	// idempotent and safe to call from error paths.
	Cancel(ctx context.Context, reason string)
}

// DisplayNames resolves an agent type to its human display name. It is
// implemented by the registry and consulted when assembling progress
// snapshots.
type DisplayNames interface {
	DisplayName(agentType string) (string, error)
}

// CreateConfig carries the collaborator handles and run parameters handed
// to an agent factory. Params is the opaque, implementation-defined
// parameter snapshot from the client's run request.
type CreateConfig struct {
	AgentID      string
	Params       json.RawMessage
	Channel      Channel
	Logger       logging.Logger
	DisplayNames DisplayNames
}

// Factory constructs an agent instance from run parameters and collaborator
// handles. Registered per agent type at startup.
type Factory func(ctx context.Context, cfg CreateConfig) (Agent, error)
