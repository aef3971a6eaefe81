// Package codemesh provides a high-level façade over the core Engine and
// agent abstractions for embedding cooperative coding agents into a host
// process. Most applications interact with this package by:
//  1. Creating a CodeMesh via New() with the channel that reaches their client
//  2. Registering one or more agent types (echo, chat, custom)
//  3. Running agents asynchronously (Run) or synchronously (RunSync)
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger.
package codemesh

import (
	"context"
	"encoding/json"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/engine"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/registry"
)

// Options configures the CodeMesh instance.
type Options struct {
	// Registry holds the agent-type catalog. Defaults to an empty registry.
	Registry *registry.Registry

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// CodeMesh is the high-level façade aggregating the underlying engine and
// agent catalog.
type CodeMesh struct {
	opts     Options
	registry *registry.Registry
	engine   *engine.Engine
}

// New creates a new CodeMesh instance speaking to the client over the given
// channel, with optional overrides.
func New(channel core.Channel, optFns ...func(o *Options)) *CodeMesh {
	opts := Options{
		Registry: registry.New(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng := engine.New(opts.Registry, channel, engine.WithLogger(opts.Logger))

	return &CodeMesh{opts: opts, registry: opts.Registry, engine: eng}
}

// Register adds an agent type to the underlying catalog.
func (m *CodeMesh) Register(entry registry.Entry) error { return m.registry.Register(entry) }

// Run starts an asynchronous agent run and returns the assigned agent id.
// An empty agentID gets a fresh short id.
func (m *CodeMesh) Run(ctx context.Context, agentType, agentID string, params json.RawMessage) (string, error) {
	return m.engine.Run(ctx, agentType, agentID, params)
}

// RunSync runs an agent on the calling goroutine and returns the agent id
// and run result.
func (m *CodeMesh) RunSync(ctx context.Context, agentType, agentID string, params json.RawMessage) (string, any, error) {
	return m.engine.RunSync(ctx, agentType, agentID, params)
}

// Cancel cancels the active run identified by agentID.
func (m *CodeMesh) Cancel(ctx context.Context, agentID string) error {
	return m.engine.Cancel(ctx, agentID)
}

// Agents lists all registered agent types as discovery records.
func (m *CodeMesh) Agents() []registry.Result { return m.engine.Agents() }
