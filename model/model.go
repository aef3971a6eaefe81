package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/codemesh/core"
)

// Request captures the normalized chat input produced by agents.
type Request struct {
	// System is an optional instruction prepended to the conversation.
	System string `json:"system,omitempty"`
	// Messages is the conversation so far, oldest first.
	Messages []core.ChatMessage `json:"messages"`
	// Stream requests incremental partial responses where supported.
	Stream bool `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a chat model.
type Response struct {
	// Partial indicates a streaming fragment; the final response repeats the
	// full accumulated content.
	Partial bool `json:"partial"`
	// Message is the assistant content for this chunk.
	Message core.ChatMessage `json:"message"`
	// FinishReason is set on the final response ("stop", "length", ...).
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// ChatModel is the minimal interface agent implementations use to drive
// generation. Implementations close both channels when generation finishes
// or the context is cancelled.
type ChatModel interface {
	Chat(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockChatModel is a lightweight in-memory ChatModel useful for tests and
// examples.
type MockChatModel struct {
	info      Info
	responses map[string]string
}

// NewMockChatModel constructs a MockChatModel.
func NewMockChatModel(name string) *MockChatModel {
	return &MockChatModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input
// message.
func (m *MockChatModel) AddResponse(input, response string) { m.responses[input] = response }

// Chat implements ChatModel; emits optional streaming char chunks then the
// final response.
func (m *MockChatModel) Chat(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}

		input := req.Messages[len(req.Messages)-1].Content
		full := m.responses[input]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", input)
		}

		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: core.AssistantMessage(string(r)),
				}:
				}
			}
		}

		respCh <- Response{
			Message:      core.AssistantMessage(full),
			FinishReason: "stop",
		}
	}()

	return respCh, errCh
}

// Info implements ChatModel.
func (m *MockChatModel) Info() Info { return m.info }
