package registry

import (
	"context"
	"testing"

	"github.com/hupe1980/codemesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopFactory(ctx context.Context, cfg core.CreateConfig) (core.Agent, error) {
	return nil, nil
}

func TestRegisterDuplicateFails(t *testing.T) {
	reg := New()

	err := reg.Register(Entry{AgentType: "chat", Description: "chat agent", Factory: nopFactory})
	require.NoError(t, err)

	err = reg.Register(Entry{AgentType: "chat", Description: "another chat agent", Factory: nopFactory})
	assert.ErrorIs(t, err, ErrDuplicateAgentType)
}

func TestRegisterDistinctTypes(t *testing.T) {
	reg := New()

	require.NoError(t, reg.Register(Entry{AgentType: "chat", Description: "chat agent", Factory: nopFactory}))
	require.NoError(t, reg.Register(Entry{AgentType: "completion", Description: "code completion", Factory: nopFactory}))

	chat, err := reg.Lookup("chat")
	require.NoError(t, err)
	assert.Equal(t, "chat agent", chat.Description)

	completion, err := reg.Lookup("completion")
	require.NoError(t, err)
	assert.Equal(t, "code completion", completion.Description)
}

func TestLookupUnknownTypeFails(t *testing.T) {
	reg := New()

	_, err := reg.Lookup("missing")
	assert.ErrorIs(t, err, ErrAgentTypeNotFound)

	_, err = reg.DisplayName("missing")
	assert.ErrorIs(t, err, ErrAgentTypeNotFound)
}

func TestListEchoScenario(t *testing.T) {
	reg := New()

	require.NoError(t, reg.Register(Entry{AgentType: "echo", Description: "echo back input", Factory: nopFactory}))

	results := reg.List()
	require.Len(t, results, 1)

	assert.Equal(t, "echo", results[0].AgentType)
	assert.Equal(t, "echo back input", results[0].Description)
	assert.Equal(t, "echo", results[0].DisplayName)
	assert.Empty(t, results[0].Icon)
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	reg := New()

	require.NoError(t, reg.Register(Entry{AgentType: "b", Description: "second", Factory: nopFactory}))
	require.NoError(t, reg.Register(Entry{AgentType: "a", Description: "first", DisplayName: "Agent A", Factory: nopFactory}))

	results := reg.List()
	require.Len(t, results, 2)

	assert.Equal(t, "b", results[0].AgentType)
	assert.Equal(t, "a", results[1].AgentType)
	assert.Equal(t, "Agent A", results[1].DisplayName)
}

func TestDisplayNameDefaultsToAgentType(t *testing.T) {
	reg := New()

	require.NoError(t, reg.Register(Entry{AgentType: "echo", Description: "echo back input", Factory: nopFactory}))

	name, err := reg.DisplayName("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", name)
}
