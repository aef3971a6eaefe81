package agent

import (
	"context"

	"github.com/hupe1980/codemesh/core"
)

// EchoAgentType identifies the echo agent implementation.
const EchoAgentType = "echo"

// EchoAgentDescription is the discovery description for the echo agent.
const EchoAgentDescription = "echo back input"

// EchoAgent is a minimal agent implementation: it prompts the client for
// free-text input, pushes it back as an update and returns it as the run
// result. Mostly useful for wiring checks and examples.
type EchoAgent struct {
	*Base
}

// NewEchoAgent constructs an echo agent instance.
func NewEchoAgent(cfg core.CreateConfig) *EchoAgent {
	a := &EchoAgent{}
	a.Base = NewBase(EchoAgentType, cfg.AgentID, cfg.Channel, a.run,
		WithLogger(cfg.Logger),
		WithDisplayNames(cfg.DisplayNames),
	)
	return a
}

// EchoFactory returns the factory registered for the echo agent type.
func EchoFactory() core.Factory {
	return func(ctx context.Context, cfg core.CreateConfig) (core.Agent, error) {
		return NewEchoAgent(cfg), nil
	}
}

func (a *EchoAgent) run(ctx context.Context) (any, error) {
	input, err := a.RequestInput(ctx, core.InputRequest{Msg: "Enter text to echo"})
	if err != nil {
		return nil, err
	}

	if err := a.SendUpdate(ctx, input); err != nil {
		return nil, err
	}

	return input, nil
}
