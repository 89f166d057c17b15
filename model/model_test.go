package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/bleater/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionSchema_Shape(t *testing.T) {
	schema := ActionSchema(false)
	assert.Equal(t, ActionSchemaName, schema.Name)

	props := schema.JSON["properties"].(map[string]any)
	variants := props["action"].(map[string]any)["anyOf"].([]any)
	require.Len(t, variants, 3)

	reply := variants[1].(map[string]any)
	replyProps := reply["properties"].(map[string]any)
	assert.Equal(t, []any{"submit_reply"}, replyProps["type"].(map[string]any)["enum"])
	assert.Contains(t, replyProps, "original_post_id")

	assert.Len(t, ActionSchema(true).JSON["properties"].(map[string]any)["action"].(map[string]any)["anyOf"], 4)
}

func TestActionSchema_Parse(t *testing.T) {
	v, err := ParseDecision(ActionSchema(false), []byte(`{"action":{"type":"submit_reply","original_post_id":"p1","content":"ok"}}`))
	require.NoError(t, err)
	assert.Equal(t, core.NewSubmitReply("p1", "ok"), v)

	_, err = ParseDecision(ActionSchema(false), []byte(`{"action":{"type":"finish_session"}}`))
	assert.ErrorIs(t, err, core.ErrSchemaViolation)

	v, err = ParseDecision(ActionSchema(true), []byte(`{"action":{"type":"finish_session"}}`))
	require.NoError(t, err)
	assert.Equal(t, core.NewFinishSession(), v)

	_, err = ParseDecision(ActionSchema(false), []byte(`I think I'll post something`))
	var sv *core.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "I think I'll post something", sv.Raw)
	assert.Equal(t, ActionSchemaName, sv.Schema)
}

func TestMockModel_ScriptedTurns(t *testing.T) {
	ctx := context.Background()
	m := NewMockModel("scripted").
		AddToolCalls(core.ToolCall{ID: "c1", Name: "submit_post", Arguments: map[string]any{"content": "hi"}}).
		AddConverseError(errors.New("backend down"))

	history := []core.Message{core.NewSystemMessage("sys"), core.NewUserMessage("go")}

	resp, err := m.Converse(ctx, Request{Messages: history})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "submit_post", resp.Message().ToolCalls[0].Name)

	_, err = m.Converse(ctx, Request{Messages: history})
	assert.EqualError(t, err, "backend down")

	resp, err = m.Converse(ctx, Request{Messages: history})
	require.NoError(t, err)
	assert.Equal(t, "Mock response", resp.Content)

	history[0].Content = "mutated"
	assert.Equal(t, "sys", m.Requests()[0].Messages[0].Content)
	assert.Equal(t, "mock", m.Info().Provider)
}

func TestMockModel_Decide(t *testing.T) {
	ctx := context.Background()
	m := NewMockModel("scripted").AddAction(core.NewSubmitPost("hello")).AddDecision("{broken")

	v, err := m.Decide(ctx, nil, ActionSchema(false))
	require.NoError(t, err)
	assert.Equal(t, core.NewSubmitPost("hello"), v)

	_, err = m.Decide(ctx, nil, ActionSchema(false))
	assert.ErrorIs(t, err, core.ErrSchemaViolation)

	// exhausted queue behaves like an empty model output
	_, err = m.Decide(ctx, nil, ActionSchema(false))
	assert.ErrorIs(t, err, core.ErrSchemaViolation)
	assert.Len(t, m.DecideHistories(), 3)
}

func TestArgsHelpers(t *testing.T) {
	assert.Equal(t, "given", CallID("given"))
	assert.Contains(t, CallID(""), "call_")
	assert.NotEqual(t, CallID(""), CallID(""))

	args, err := UnmarshalArgs(`{"content":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", args["content"])

	args, err = UnmarshalArgs(`{oops`)
	assert.Error(t, err)
	assert.Empty(t, args)

	assert.JSONEq(t, `{"a":1}`, MarshalArgs(map[string]any{"a": 1}))
	assert.Equal(t, "{}", MarshalArgs(nil))
}
