package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// MethodPrefix namespaces every channel method the core emits or requests.
const MethodPrefix = "mesh/"

// Channel is the communication link to the external client. The wire framing
// behind it (LSP, JSON-RPC, websocket, ...) is owned by the host process;
// the core only relies on these two primitives. Implementations must
// preserve the submission order of notifications.
type Channel interface {
	// Notify pushes a fire-and-forget message to the client.
	Notify(ctx context.Context, method string, params any) error

	// Request performs a round trip to the client and suspends until the
	// response arrives or the round trip fails.
	Request(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// ProgressMethod returns the notification method carrying progress snapshots
// for the given agent instance.
func ProgressMethod(agentType, agentID string) string {
	return fmt.Sprintf("%s%s_%s_send_progress", MethodPrefix, agentType, agentID)
}

// UpdateMethod returns the notification method carrying free-text updates
// (client-side toasts) for the given agent instance.
func UpdateMethod(agentType, agentID string) string {
	return fmt.Sprintf("%s%s_%s_send_update", MethodPrefix, agentType, agentID)
}

// InputRequestMethod returns the round-trip method prompting the client for
// free-text input.
func InputRequestMethod(agentType, agentID string) string {
	return fmt.Sprintf("%s%s_%s_request_input", MethodPrefix, agentType, agentID)
}

// ChatRequestMethod returns the round-trip method carrying the current
// conversation to the client.
func ChatRequestMethod(agentType, agentID string) string {
	return fmt.Sprintf("%s%s_%s_request_chat", MethodPrefix, agentType, agentID)
}

// InputRequest prompts the client for free-text input.
type InputRequest struct {
	Msg         string `json:"msg"`
	PlaceHolder string `json:"place_holder,omitempty"`
}

// InputResponse is the client's reply to an InputRequest.
type InputResponse struct {
	Response string `json:"response"`
}

// ChatRequest carries the conversation so far to the client, which answers
// with the user's next message.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse is the client's reply to a ChatRequest.
type ChatResponse struct {
	Message ChatMessage `json:"message"`
}

// Update is the payload of an UpdateMethod notification.
type Update struct {
	Msg string `json:"msg"`
}
