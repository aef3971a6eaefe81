package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/codemesh/agent"
	"github.com/hupe1980/codemesh/channel"
	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingFactory builds agents that run until cancelled.
func blockingFactory() core.Factory {
	return func(ctx context.Context, cfg core.CreateConfig) (core.Agent, error) {
		return agent.NewBase("block", cfg.AgentID, cfg.Channel, func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}, agent.WithLogger(cfg.Logger), agent.WithDisplayNames(cfg.DisplayNames)), nil
	}
}

func newEchoEngine(t *testing.T) (*Engine, *channel.InMemory) {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(registry.Entry{
		AgentType:   agent.EchoAgentType,
		Description: agent.EchoAgentDescription,
		Factory:     agent.EchoFactory(),
	}))

	ch := channel.NewInMemory()

	return New(reg, ch), ch
}

func TestEngine(t *testing.T) {
	t.Run("run sync echo agent", func(t *testing.T) {
		eng, ch := newEchoEngine(t)
		ch.Respond(core.InputRequestMethod(agent.EchoAgentType, "echo1"), core.InputResponse{Response: "hello"})

		agentID, result, err := eng.RunSync(context.Background(), agent.EchoAgentType, "echo1", nil)
		require.NoError(t, err)
		assert.Equal(t, "echo1", agentID)
		assert.Equal(t, "hello", result)

		progress := ch.NotificationsFor(core.ProgressMethod(agent.EchoAgentType, "echo1"))
		assert.GreaterOrEqual(t, len(progress), 2)

		updates := ch.NotificationsFor(core.UpdateMethod(agent.EchoAgentType, "echo1"))
		require.Len(t, updates, 1)
		assert.Equal(t, core.Update{Msg: "[echo] hello"}, updates[0].Params)
	})

	t.Run("run sync generates agent id when empty", func(t *testing.T) {
		eng, _ := newEchoEngine(t)

		// The unscripted input round trip fails and the agent cancels itself,
		// which the run swallows; only the assigned id matters here.
		agentID, _, err := eng.RunSync(context.Background(), agent.EchoAgentType, "", nil)
		require.NoError(t, err)
		assert.Len(t, agentID, 8)
	})

	t.Run("unknown agent type fails", func(t *testing.T) {
		eng, _ := newEchoEngine(t)

		_, err := eng.Run(context.Background(), "unknown", "", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, registry.ErrAgentTypeNotFound)
	})

	t.Run("run tracks active agent until completion", func(t *testing.T) {
		eng, ch := newEchoEngine(t)
		ch.Respond(core.InputRequestMethod(agent.EchoAgentType, "echo2"), core.InputResponse{Response: "done"})

		agentID, err := eng.Run(context.Background(), agent.EchoAgentType, "echo2", nil)
		require.NoError(t, err)
		assert.Equal(t, "echo2", agentID)

		assert.Eventually(t, func() bool {
			_, active := eng.ActiveAgent("echo2")
			return !active
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("cancel stops active run", func(t *testing.T) {
		reg := registry.New()
		require.NoError(t, reg.Register(registry.Entry{AgentType: "block", Factory: blockingFactory()}))
		eng := New(reg, channel.NewInMemory())

		agentID, err := eng.Run(context.Background(), "block", "block1", nil)
		require.NoError(t, err)

		ag, active := eng.ActiveAgent(agentID)
		require.True(t, active)
		assert.Equal(t, "block", ag.Type())

		require.NoError(t, eng.Cancel(context.Background(), agentID))

		assert.Eventually(t, func() bool {
			_, active := eng.ActiveAgent(agentID)
			return !active
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("cancel unknown agent id fails", func(t *testing.T) {
		eng, _ := newEchoEngine(t)

		err := eng.Cancel(context.Background(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAgentNotFound)
	})

	t.Run("duplicate agent id rejected while active", func(t *testing.T) {
		reg := registry.New()
		require.NoError(t, reg.Register(registry.Entry{AgentType: "block", Factory: blockingFactory()}))
		eng := New(reg, channel.NewInMemory())

		agentID, err := eng.Run(context.Background(), "block", "dup", nil)
		require.NoError(t, err)

		_, err = eng.Run(context.Background(), "block", "dup", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAgentIDInUse)

		require.NoError(t, eng.Cancel(context.Background(), agentID))
	})

	t.Run("agents lists registered types", func(t *testing.T) {
		eng, _ := newEchoEngine(t)

		results := eng.Agents()
		require.Len(t, results, 1)
		assert.Equal(t, agent.EchoAgentType, results[0].AgentType)
		assert.Equal(t, agent.EchoAgentDescription, results[0].Description)
	})
}
