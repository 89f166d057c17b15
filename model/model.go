package model

import (
	"context"

	"github.com/hupe1980/bleater/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized free-form model input.
type Request struct {
	Messages []core.Message  `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a complete free-form answer. ToolCalls keep the order in which
// the backend proposed them.
type Response struct {
	Content      string          `json:"content,omitempty"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Message converts the response into the assistant message appended to history.
func (r *Response) Message() core.Message {
	return core.NewAssistantMessage(r.Content, r.ToolCalls...)
}

// Schema declares the shape a structured decision must take. JSON is handed
// to the backend as its output constraint; Parse turns the raw output into a
// Go value and rejects anything that does not conform.
type Schema struct {
	Name        string
	Description string
	JSON        map[string]any
	Parse       func(raw []byte) (any, error)
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "gemini", "anthropic", "mock"
}

// Backend is the interface every model adapter implements.
type Backend interface {
	// Converse sends the history and available tools and returns the model's
	// free-form answer.
	Converse(ctx context.Context, req Request) (*Response, error)

	// Decide sends the history and returns the parsed value produced under
	// the schema constraint. Parse failures are *core.SchemaViolationError.
	Decide(ctx context.Context, history []core.Message, schema Schema) (any, error)

	// Info returns information about the backend implementation.
	Info() Info
}

// ParseDecision applies schema.Parse and converts failures into a schema
// violation carrying the raw output. Adapters call it on the text they get back.
func ParseDecision(schema Schema, raw []byte) (any, error) {
	if schema.Parse == nil {
		return nil, &core.SchemaViolationError{Schema: schema.Name, Raw: string(raw), Err: errNoParser}
	}
	v, err := schema.Parse(raw)
	if err != nil {
		return nil, &core.SchemaViolationError{Schema: schema.Name, Raw: string(raw), Err: err}
	}
	return v, nil
}
