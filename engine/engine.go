package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/registry"
)

// ErrAgentIDInUse is returned when a run is requested under an agent id that
// is already active.
var ErrAgentIDInUse = fmt.Errorf("agent id already in use")

// ErrAgentNotFound is returned when Cancel targets an agent id with no
// active run.
var ErrAgentNotFound = fmt.Errorf("no active agent with that id")

// Options holds optional Engine configuration.
type Options struct {
	// Logger receives engine and agent lifecycle diagnostics. Defaults to a
	// no-op logger.
	Logger logging.Logger
}

// WithLogger sets the engine's logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

type activeRun struct {
	agent  core.Agent
	cancel context.CancelFunc
}

// Engine resolves agent types through its registry, creates instances and
// supervises their runs. All methods are safe for concurrent use.
type Engine struct {
	registry *registry.Registry
	channel  core.Channel
	logger   logging.Logger

	mu     sync.RWMutex
	active map[string]*activeRun
}

// New constructs an engine backed by the given registry and client channel.
func New(reg *registry.Registry, channel core.Channel, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		registry: reg,
		channel:  channel,
		logger:   opts.Logger,
		active:   make(map[string]*activeRun),
	}
}

// Run creates an agent of the given type and starts its Main in a background
// goroutine, returning the assigned agent id immediately. An empty agentID
// gets a fresh short id. The run outlives ctx: cancelling the request
// context does not cancel the agent, only Cancel does.
func (e *Engine) Run(ctx context.Context, agentType, agentID string, params json.RawMessage) (string, error) {
	entry, err := e.registry.Lookup(agentType)
	if err != nil {
		return "", err
	}

	if agentID == "" {
		agentID = uuid.NewString()[:8]
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	ag, err := e.create(ctx, entry, agentID, params)
	if err != nil {
		cancel()
		return "", err
	}

	e.mu.Lock()
	if _, ok := e.active[agentID]; ok {
		e.mu.Unlock()
		cancel()
		return "", fmt.Errorf("%w: %s", ErrAgentIDInUse, agentID)
	}
	e.active[agentID] = &activeRun{agent: ag, cancel: cancel}
	e.mu.Unlock()

	e.logger.Info("agent run started", "agent_type", agentType, "agent_id", agentID)

	go func() {
		defer cancel()
		defer func() {
			e.mu.Lock()
			delete(e.active, agentID)
			e.mu.Unlock()
		}()

		if _, err := ag.Main(runCtx); err != nil {
			e.logger.Error("agent run failed", "agent_type", agentType, "agent_id", agentID, "error", err)
			return
		}
		e.logger.Info("agent run finished", "agent_type", agentType, "agent_id", agentID)
	}()

	return agentID, nil
}

// RunSync creates an agent of the given type and awaits its Main on the
// calling goroutine, returning the agent id and the run result. Cancelling
// ctx cancels the agent.
func (e *Engine) RunSync(ctx context.Context, agentType, agentID string, params json.RawMessage) (string, any, error) {
	entry, err := e.registry.Lookup(agentType)
	if err != nil {
		return "", nil, err
	}

	if agentID == "" {
		agentID = uuid.NewString()[:8]
	}

	ag, err := e.create(ctx, entry, agentID, params)
	if err != nil {
		return "", nil, err
	}

	e.mu.Lock()
	if _, ok := e.active[agentID]; ok {
		e.mu.Unlock()
		return "", nil, fmt.Errorf("%w: %s", ErrAgentIDInUse, agentID)
	}
	e.active[agentID] = &activeRun{agent: ag, cancel: func() {}}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.active, agentID)
		e.mu.Unlock()
	}()

	result, err := ag.Main(ctx)
	if err != nil {
		return agentID, nil, fmt.Errorf("agent %s run: %w", agentID, err)
	}

	return agentID, result, nil
}

// Cancel cancels the active run identified by agentID. It returns
// ErrAgentNotFound when no run with that id is active.
func (e *Engine) Cancel(ctx context.Context, agentID string) error {
	e.mu.RLock()
	run, ok := e.active[agentID]
	e.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}

	e.logger.Info("agent run cancel requested", "agent_id", agentID)

	run.agent.Cancel(ctx, "cancel requested")
	run.cancel()

	return nil
}

// ActiveAgent returns the agent for an active run, if any.
func (e *Engine) ActiveAgent(agentID string) (core.Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	run, ok := e.active[agentID]
	if !ok {
		return nil, false
	}
	return run.agent, true
}

// Agents lists all registered agent types as discovery records.
func (e *Engine) Agents() []registry.Result {
	return e.registry.List()
}

func (e *Engine) create(ctx context.Context, entry registry.Entry, agentID string, params json.RawMessage) (core.Agent, error) {
	ag, err := entry.Factory(ctx, core.CreateConfig{
		AgentID:      agentID,
		Params:       params,
		Channel:      e.channel,
		Logger:       e.logger,
		DisplayNames: e.registry,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent %s: %w", entry.AgentType, err)
	}
	return ag, nil
}
