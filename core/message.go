package core

// ChatMessage is a single role-attributed message in a conversation between
// the client's user and an agent.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage creates a user-authored chat message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// AssistantMessage creates an assistant-authored chat message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// SystemMessage creates a system chat message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}
