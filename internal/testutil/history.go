package testutil

import (
	"github.com/hupe1980/bleater/core"
)

// HistoryBuilder builds message histories with fluent chaining.
// Example:
//
//	h := NewHistoryBuilder("You are Alice.").User("go").Call("c1", "submit_post", args).Result("ok").Build()
type HistoryBuilder struct {
	msgs    []core.Message
	pending []core.ToolCall
}

// NewHistoryBuilder starts a history with a system message.
func NewHistoryBuilder(system string) *HistoryBuilder {
	return &HistoryBuilder{msgs: []core.Message{core.NewSystemMessage(system)}}
}

// User appends a user message.
func (b *HistoryBuilder) User(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(text))
	return b
}

// Assistant appends a plain assistant message.
func (b *HistoryBuilder) Assistant(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewAssistantMessage(text))
	return b
}

// Call appends an assistant message proposing one tool call. Answer it with Result or Error.
func (b *HistoryBuilder) Call(id, name string, args map[string]any) *HistoryBuilder {
	call := core.ToolCall{ID: id, Name: name, Arguments: args}
	b.msgs = append(b.msgs, core.NewAssistantMessage("", call))
	b.pending = append(b.pending, call)
	return b
}

// Result answers the oldest unanswered call.
func (b *HistoryBuilder) Result(text string) *HistoryBuilder {
	call := b.next()
	b.msgs = append(b.msgs, core.NewToolResultMessage(call, text))
	return b
}

// Error answers the oldest unanswered call with an error.
func (b *HistoryBuilder) Error(err error) *HistoryBuilder {
	call := b.next()
	b.msgs = append(b.msgs, core.NewToolErrorMessage(call, err))
	return b
}

// Build returns the history.
func (b *HistoryBuilder) Build() []core.Message {
	return core.CloneMessages(b.msgs)
}

func (b *HistoryBuilder) next() core.ToolCall {
	if len(b.pending) == 0 {
		return core.ToolCall{}
	}
	call := b.pending[0]
	b.pending = b.pending[1:]
	return call
}
