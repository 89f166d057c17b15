package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTranscript_Valid(t *testing.T) {
	call1 := ToolCall{ID: "c1", Name: "submit_post", Arguments: map[string]any{"content": "hi"}}
	call2 := ToolCall{ID: "c2", Name: "view_thread", Arguments: map[string]any{"original_post_id": "p1"}}

	history := []Message{
		NewSystemMessage("you are alice"),
		NewUserMessage("act"),
		NewAssistantMessage("", call1, call2),
		NewToolResultMessage(call1, "Post created"),
		NewToolErrorMessage(call2, errors.New("not found")),
		NewUserMessage("act again"),
		NewAssistantMessage("nothing to do"),
	}

	assert.NoError(t, ValidateTranscript(history))
}

func TestValidateTranscript_Violations(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "submit_post"}

	tests := []struct {
		name    string
		history []Message
		index   int
	}{
		{"empty", nil, 0},
		{"no system first", []Message{NewUserMessage("x")}, 0},
		{"second system", []Message{NewSystemMessage("a"), NewSystemMessage("b")}, 1},
		{"missing tool reply", []Message{NewSystemMessage("a"), NewAssistantMessage("", call)}, 2},
		{"reply out of place", []Message{NewSystemMessage("a"), NewAssistantMessage("", call), NewUserMessage("x")}, 2},
		{"stray tool message", []Message{NewSystemMessage("a"), NewToolResultMessage(call, "ok")}, 1},
		{"mismatched id", []Message{
			NewSystemMessage("a"),
			NewAssistantMessage("", call),
			NewToolResultMessage(ToolCall{ID: "other", Name: "submit_post"}, "ok"),
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTranscript(tt.history)
			require.Error(t, err)
			var terr *TranscriptError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.index, terr.Index)
		})
	}
}

func TestMessage_Text(t *testing.T) {
	assert.Equal(t, "plain", NewUserMessage("plain").Text())

	m := Message{Role: RoleAssistant, Value: map[string]any{"a": 1}}
	assert.Equal(t, `{"a":1}`, m.Text())
}

func TestCloneMessages_Independent(t *testing.T) {
	orig := []Message{NewSystemMessage("a")}
	cp := CloneMessages(orig)
	cp[0].Content = "b"
	assert.Equal(t, "a", orig[0].Content)
}
