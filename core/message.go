package core

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a Message.
type Role string

const (
	// RoleSystem carries the session instruction block.
	RoleSystem Role = "system"
	// RoleUser carries prompts rendered on behalf of the platform.
	RoleUser Role = "user"
	// RoleAssistant carries model output (text, tool calls or a decision).
	RoleAssistant Role = "assistant"
	// RoleTool carries the outcome of one tool call.
	RoleTool Role = "tool"
)

// ToolCall is a backend-proposed invocation. It stays unresolved until the
// persona dispatches it against its tool registry.
type ToolCall struct {
	ID        string         `json:"id,omitempty"` // Correlates the call with its tool message
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry of a conversation history. Order is significant: a
// history is the literal transcript sent to the backend on every turn.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Value      any        `json:"value,omitempty"` // Structured payload (e.g. a decided Action)
	ToolName   string     `json:"tool_name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// NewSystemMessage builds a system message.
func NewSystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// NewUserMessage builds a user message.
func NewUserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// NewAssistantMessage builds an assistant message with optional tool calls.
func NewAssistantMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// NewToolResultMessage records the successful result of a tool call.
func NewToolResultMessage(call ToolCall, result string) Message {
	return Message{Role: RoleTool, Content: result, ToolName: call.Name, ToolCallID: call.ID}
}

// NewToolErrorMessage records the failure of a tool call. The error text
// becomes the message content so the model can react to it.
func NewToolErrorMessage(call ToolCall, err error) Message {
	return Message{Role: RoleTool, Content: err.Error(), ToolName: call.Name, ToolCallID: call.ID, IsError: true}
}

// Text returns the textual content of the message. A message carrying only a
// structured value is rendered as JSON.
func (m Message) Text() string {
	if m.Content != "" || m.Value == nil {
		return m.Content
	}
	b, err := json.Marshal(m.Value)
	if err != nil {
		return fmt.Sprintf("%v", m.Value)
	}
	return string(b)
}

// HasToolCalls reports whether the message proposes tool calls.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// CloneMessages returns a copy of the history slice so callers can hand it to
// a backend without exposing the persona's backing array.
func CloneMessages(history []Message) []Message {
	out := make([]Message, len(history))
	copy(out, history)
	return out
}
