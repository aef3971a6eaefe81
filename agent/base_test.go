package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/codemesh/channel"
	"github.com/hupe1980/codemesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticNames struct {
	name string
	err  error
}

func (n staticNames) DisplayName(agentType string) (string, error) {
	return n.name, n.err
}

func lastProgress(t *testing.T, ch *channel.InMemory, agentType, agentID string) core.Progress {
	t.Helper()

	notifications := ch.NotificationsFor(core.ProgressMethod(agentType, agentID))
	require.NotEmpty(t, notifications)

	progress, ok := notifications[len(notifications)-1].Params.(core.Progress)
	require.True(t, ok)

	return progress
}

func TestBase(t *testing.T) {
	t.Run("main runs bound function and reports progress", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			return "ok", nil
		})

		result, err := b.Main(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", result)

		notifications := ch.NotificationsFor(core.ProgressMethod("worker", "w1"))
		assert.GreaterOrEqual(t, len(notifications), 2)

		final := lastProgress(t, ch, "worker", "w1")
		assert.Equal(t, "worker", final.AgentType)
		assert.Equal(t, "w1", final.AgentID)
		require.NotNil(t, final.Tasks)
		assert.Equal(t, core.StatusDone, final.Tasks.Task.Status)
		assert.Equal(t, "worker", final.Tasks.Task.Description)
	})

	t.Run("main cannot be invoked twice", func(t *testing.T) {
		b := NewBase("worker", "w1", channel.NewInMemory(), func(ctx context.Context) (any, error) {
			return nil, nil
		})

		_, err := b.Main(context.Background())
		require.NoError(t, err)

		_, err = b.Main(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "main already invoked")
	})

	t.Run("display name lookup labels the root task", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			return nil, nil
		}, WithDisplayNames(staticNames{name: "Worker"}))

		_, err := b.Main(context.Background())
		require.NoError(t, err)

		final := lastProgress(t, ch, "worker", "w1")
		require.NotNil(t, final.Tasks)
		assert.Equal(t, "Worker", final.Tasks.Task.Description)
	})

	t.Run("failed display name lookup omits the task tree", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			return nil, nil
		}, WithDisplayNames(staticNames{err: errors.New("unknown agent type")}))

		_, err := b.Main(context.Background())
		require.NoError(t, err)

		final := lastProgress(t, ch, "worker", "w1")
		assert.Nil(t, final.Tasks)
	})

	t.Run("cancel before main is a no-op", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			return nil, nil
		})

		b.Cancel(context.Background(), "nothing to cancel")

		assert.Empty(t, ch.Notifications())
	})

	t.Run("cancel stops a running agent and its subtasks", func(t *testing.T) {
		ch := channel.NewInMemory()

		var b *Base
		started := make(chan struct{})
		var subtask *core.Task

		b = NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			subtask = b.AddTask("pending work", func(ctx context.Context, _ ...any) (any, error) {
				return nil, nil
			})
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			result, err := b.Main(context.Background())
			assert.NoError(t, err)
			assert.Nil(t, result)
		}()

		<-started
		b.Cancel(context.Background(), "user requested")

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("main did not return after cancel")
		}

		// The subtask was never started, so cancellation closes it directly.
		assert.Equal(t, core.StatusCancelled, subtask.Status())

		// At least one snapshot reports the cancelled root and subtask.
		var sawCancelled bool
		for _, n := range ch.NotificationsFor(core.ProgressMethod("worker", "w1")) {
			progress, ok := n.Params.(core.Progress)
			if !ok || progress.Tasks == nil {
				continue
			}
			if progress.Tasks.Task.Status == core.StatusCancelled &&
				len(progress.Tasks.Subtasks) == 1 &&
				progress.Tasks.Subtasks[0].Status == core.StatusCancelled {
				sawCancelled = true
			}
		}
		assert.True(t, sawCancelled)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = b.Main(context.Background())
		}()

		assert.Eventually(t, func() bool {
			return len(ch.Notifications()) > 0
		}, time.Second, 5*time.Millisecond)

		b.Cancel(context.Background(), "first")
		<-done

		before := len(ch.Notifications())
		b.Cancel(context.Background(), "second")
		assert.Len(t, ch.Notifications(), before)
	})

	t.Run("context cancellation is swallowed after cancelling the agent", func(t *testing.T) {
		ch := channel.NewInMemory()
		observed := make(chan struct{})
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			<-ctx.Done()
			close(observed)
			return nil, ctx.Err()
		})

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			defer close(done)
			result, err := b.Main(ctx)
			assert.NoError(t, err)
			assert.Nil(t, result)
		}()

		assert.Eventually(t, func() bool {
			return len(ch.Notifications()) > 0
		}, time.Second, 5*time.Millisecond)

		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("main did not return after context cancellation")
		}

		// The bound function saw the cancellation even though Main swallowed
		// it.
		select {
		case <-observed:
		case <-time.After(time.Second):
			t.Fatal("run function never observed cancellation")
		}
	})

	t.Run("request input returns the client response", func(t *testing.T) {
		ch := channel.NewInMemory()
		ch.Respond(core.InputRequestMethod("worker", "w1"), core.InputResponse{Response: "typed text"})

		b := NewBase("worker", "w1", ch, nil)

		input, err := b.RequestInput(context.Background(), core.InputRequest{Msg: "say something"})
		require.NoError(t, err)
		assert.Equal(t, "typed text", input)
	})

	t.Run("failed input round trip cancels the agent", func(t *testing.T) {
		ch := channel.NewInMemory()

		var b *Base
		b = NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			input, err := b.RequestInput(ctx, core.InputRequest{Msg: "say something"})
			if err != nil {
				return nil, err
			}
			return input, nil
		})

		result, err := b.Main(context.Background())
		require.NoError(t, err)
		assert.Nil(t, result)

		final := lastProgress(t, ch, "worker", "w1")
		require.NotNil(t, final.Tasks)
		assert.Equal(t, core.StatusCancelled, final.Tasks.Task.Status)
	})

	t.Run("request chat returns the client message", func(t *testing.T) {
		ch := channel.NewInMemory()
		ch.Respond(core.ChatRequestMethod("worker", "w1"), core.ChatResponse{
			Message: core.UserMessage("hello there"),
		})

		b := NewBase("worker", "w1", ch, nil)

		msg, err := b.RequestChat(context.Background(), core.ChatRequest{})
		require.NoError(t, err)
		assert.Equal(t, core.UserMessage("hello there"), msg)
	})

	t.Run("failed chat round trip propagates", func(t *testing.T) {
		b := NewBase("worker", "w1", channel.NewInMemory(), nil)

		_, err := b.RequestChat(context.Background(), core.ChatRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "request_chat")
	})

	t.Run("send update notifies and reports progress", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, nil)

		require.NoError(t, b.SendUpdate(context.Background(), "half way"))

		updates := ch.NotificationsFor(core.UpdateMethod("worker", "w1"))
		require.Len(t, updates, 1)
		assert.Equal(t, core.Update{Msg: "[worker] half way"}, updates[0].Params)

		progress := ch.NotificationsFor(core.ProgressMethod("worker", "w1"))
		assert.Len(t, progress, 1)
	})

	t.Run("payload only progress omits the task tree", func(t *testing.T) {
		ch := channel.NewInMemory()
		b := NewBase("worker", "w1", ch, func(ctx context.Context) (any, error) {
			return nil, nil
		})

		_, err := b.Main(context.Background())
		require.NoError(t, err)

		require.NoError(t, b.SendProgress(context.Background(), "payload", WithPayloadOnly()))

		final := lastProgress(t, ch, "worker", "w1")
		assert.Nil(t, final.Tasks)
		assert.Equal(t, "payload", final.Payload)
	})
}
