package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/model"
)

// ChatAgentType identifies the chat agent implementation.
const ChatAgentType = "chat"

// ChatAgentDescription is the discovery description for the chat agent.
const ChatAgentDescription = "Ask questions about your code."

// ChatAgentDisplayName is the display name shown for the chat agent's root
// task.
const ChatAgentDisplayName = "Chat"

// ChatProgress is the payload attached to progress snapshots while a
// response is being generated.
type ChatProgress struct {
	Response      string `json:"response,omitempty"`
	DoneStreaming bool   `json:"done_streaming,omitempty"`
}

// ChatAgent runs an open-ended conversation: each round it asks the client
// for the user's next message via a chat round trip, generates the
// assistant reply with its model and streams the accumulating response to
// the client as progress payloads. The conversation history is the agent's
// own state snapshot, guarded against the concurrently streaming generator.
type ChatAgent struct {
	*Base

	model model.ChatModel

	mu       sync.Mutex
	messages []core.ChatMessage
}

// NewChatAgent constructs a chat agent instance with an opening assistant
// greeting.
func NewChatAgent(cfg core.CreateConfig, chatModel model.ChatModel) *ChatAgent {
	a := &ChatAgent{
		model: chatModel,
		messages: []core.ChatMessage{
			core.AssistantMessage("Hello! How can I help you today?"),
		},
	}
	a.Base = NewBase(ChatAgentType, cfg.AgentID, cfg.Channel, a.run,
		WithLogger(cfg.Logger),
		WithDisplayNames(cfg.DisplayNames),
	)
	return a
}

// ChatFactory returns the factory registered for the chat agent type,
// closing over the model collaborator.
func ChatFactory(chatModel model.ChatModel) core.Factory {
	return func(ctx context.Context, cfg core.CreateConfig) (core.Agent, error) {
		return NewChatAgent(cfg, chatModel), nil
	}
}

// History returns a copy of the conversation so far.
func (a *ChatAgent) History() []core.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

func (a *ChatAgent) appendMessage(msg core.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

func (a *ChatAgent) run(ctx context.Context) (any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		waitTask := core.NewTask("Await user message", func(ctx context.Context, _ ...any) (any, error) {
			msg, err := a.RequestChat(ctx, core.ChatRequest{Messages: a.History()})
			if err != nil {
				return nil, err
			}
			return msg, nil
		})
		generateTask := core.NewTask("Generate response", func(ctx context.Context, _ ...any) (any, error) {
			return a.generate(ctx)
		})

		// The progress view shows one pending round at a time.
		a.SetTasks([]*core.Task{waitTask, generateTask})
		a.progress(ctx, nil)

		userValue, err := waitTask.Run(ctx)
		if err != nil {
			return nil, err
		}
		switch waitTask.Status() {
		case core.StatusDone:
		case core.StatusCancelled:
			return nil, context.Canceled
		default:
			return nil, fmt.Errorf("await user message: %w", waitTask.Err())
		}

		a.appendMessage(userValue.(core.ChatMessage))
		a.progress(ctx, nil)

		responseValue, err := generateTask.Run(ctx)
		if err != nil {
			return nil, err
		}
		switch generateTask.Status() {
		case core.StatusDone:
		case core.StatusCancelled:
			return nil, context.Canceled
		default:
			return nil, fmt.Errorf("generate response: %w", generateTask.Err())
		}

		a.appendMessage(core.AssistantMessage(responseValue.(string)))
		a.progress(ctx, nil)
	}
}

// generate streams the assistant reply from the model, emitting the
// accumulated response as progress payloads, and returns the full text.
func (a *ChatAgent) generate(ctx context.Context) (any, error) {
	respCh, errCh := a.model.Chat(ctx, model.Request{
		Messages: a.History(),
		Stream:   true,
	})

	var accumulated strings.Builder
	var final string

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				accumulated.WriteString(resp.Message.Content)
				a.progress(ctx, ChatProgress{Response: accumulated.String()})
				continue
			}
			final = resp.Message.Content
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("model generation: %w", err)
			}
		}
	}

	if final == "" {
		final = accumulated.String()
	}

	a.progress(ctx, ChatProgress{Response: final, DoneStreaming: true})

	return final, nil
}

// progress sends a snapshot, downgrading failures to warnings so a flaky
// channel cannot abort a healthy conversation.
func (a *ChatAgent) progress(ctx context.Context, payload any) {
	if err := a.SendProgress(ctx, payload); err != nil {
		a.Base.logger.Warn("failed to send chat progress", "agent_id", a.ID(), "error", err)
	}
}
