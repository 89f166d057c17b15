package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/internal/testutil"
	"github.com/hupe1980/bleater/model"
	"github.com/hupe1980/bleater/platform"
	"github.com/hupe1980/bleater/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func builtPersona(t *testing.T, p *testutil.MockPlatform, optFns ...func(o *Options)) *Persona {
	t.Helper()
	p.On("RegisterUser", mock.Anything, "Alice").Return(&platform.User{ID: "u1", Name: "Alice"}, nil).Once()
	p.QuietContext("u1")

	persona := NewPersona("Alice", "Alice loves gardening.", p, optFns...)
	require.NoError(t, persona.Build(context.Background()))
	return persona
}

func staticTool(name, result string) ToolFactory {
	return func(platform.Platform, string) tool.Tool {
		return tool.NewFunctionToolFromStruct(name, "static", tool.SubmitPostArgs{}, func(context.Context, map[string]any) (any, error) {
			return result, nil
		})
	}
}

func TestPersona_FreeFormRoundTranscript(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p,
		WithMode(ModeFreeForm),
		WithActionsPerSession(1),
		WithTools(staticTool("submit_post", "Post created")),
	)

	backend := model.NewMockModel("mock").
		AddToolCalls(core.ToolCall{ID: "c1", Name: "submit_post", Arguments: map[string]any{"content": "hi"}})

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)

	history := persona.History()
	require.Len(t, history, 4)
	assert.Equal(t, core.RoleSystem, history[0].Role)
	assert.Equal(t, core.RoleUser, history[1].Role)
	assert.Equal(t, core.RoleAssistant, history[2].Role)
	require.Len(t, history[2].ToolCalls, 1)
	assert.Equal(t, "submit_post", history[2].ToolCalls[0].Name)
	assert.Equal(t, core.RoleTool, history[3].Role)
	assert.Equal(t, "Post created", history[3].Content)
	assert.Equal(t, "c1", history[3].ToolCallID)
	assert.NoError(t, core.ValidateTranscript(history))

	assert.Equal(t, 1, report.Rounds)
	assert.Equal(t, 1, report.ToolCalls)
	assert.Zero(t, report.Failures)
	assert.Equal(t, StateSessionIdle, persona.State())

	requests := backend.Requests()
	require.Len(t, requests, 1)
	assert.Len(t, requests[0].Messages, 2)
	require.Len(t, requests[0].Tools, 1)
	assert.Equal(t, "submit_post", requests[0].Tools[0].Name)
}

func TestPersona_StructuredReplyDispatch(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithActionsPerSession(1))
	p.On("SubmitReply", mock.Anything, "u1", "ok", "p1").Return(&platform.Post{ID: "p2", ParentID: "p1"}, nil).Once()

	backend := model.NewMockModel("mock").AddAction(core.NewSubmitReply("p1", "ok"))

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ToolCalls)

	history := persona.History()
	require.Len(t, history, 4)

	decision := history[2]
	assert.Equal(t, core.RoleAssistant, decision.Role)
	assert.Equal(t, core.NewSubmitReply("p1", "ok"), decision.Value)
	assert.JSONEq(t, `{"action":{"type":"submit_reply","original_post_id":"p1","content":"ok"}}`, decision.Content)
	require.Len(t, decision.ToolCalls, 1)
	assert.Equal(t, "submit_reply", decision.ToolCalls[0].Name)

	assert.Equal(t, core.RoleTool, history[3].Role)
	assert.Equal(t, "Reply created with id p2", history[3].Content)
	assert.NoError(t, core.ValidateTranscript(history))

	p.AssertExpectations(t)
}

func TestPersona_RoundBudget(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithActionsPerSession(3))
	p.On("ViewThread", mock.Anything, "p1").Return(nil, platform.ErrNotFound).Times(3)

	backend := model.NewMockModel("mock")
	for range 3 {
		backend.AddAction(core.NewViewThread("p1"))
	}

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rounds)
	assert.Len(t, backend.DecideHistories(), 3)

	history := persona.History()
	assert.Len(t, history, 1+3*3)
	assert.Equal(t, tool.NotFoundResult, history[len(history)-1].Content)
	assert.NoError(t, core.ValidateTranscript(history))
}

func TestPersona_BuildIsIdempotent(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p)
	names := persona.Registry().Names()

	require.NoError(t, persona.Build(context.Background()))
	assert.Equal(t, names, persona.Registry().Names())
	assert.True(t, persona.Registry().Frozen())
	p.AssertNumberOfCalls(t, "RegisterUser", 1)
	assert.Equal(t, "u1", persona.UserID())
}

func TestPersona_BuildWithPresetUserID(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := NewPersona("Bob", "", p, WithUserID("u9"), WithAllowFinish())

	require.NoError(t, persona.Build(context.Background()))
	p.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
	assert.Equal(t, StateBuilt, persona.State())
	assert.Equal(t, []string{"submit_post", "submit_reply", "view_thread", "read_notifications", "finish_session"}, persona.Registry().Names())
}

func TestPersona_BuildConflictStaysUnbuilt(t *testing.T) {
	p := testutil.NewMockPlatform()
	p.On("RegisterUser", mock.Anything, "Alice").Return(nil, core.ErrRegistrationConflict).Once()
	p.On("RegisterUser", mock.Anything, "Alice").Return(&platform.User{ID: "u1"}, nil).Once()

	persona := NewPersona("Alice", "", p)
	err := persona.Build(context.Background())
	assert.ErrorIs(t, err, core.ErrRegistrationConflict)
	assert.Equal(t, StateUnbuilt, persona.State())
	assert.Zero(t, persona.Registry().Len())

	_, err = persona.Run(context.Background(), model.NewMockModel("mock"))
	assert.ErrorIs(t, err, ErrNotBuilt)

	require.NoError(t, persona.Build(context.Background()))
	assert.True(t, persona.Built())
}

func TestPersona_ToolFailuresAreIsolated(t *testing.T) {
	explode := func(platform.Platform, string) tool.Tool {
		return tool.NewFunctionToolFromStruct("explode", "Panics", tool.NoArgs{}, func(context.Context, map[string]any) (any, error) {
			panic("kaboom")
		})
	}

	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p,
		WithMode(ModeFreeForm),
		WithActionsPerSession(2),
		WithTools(staticTool("submit_post", "Post created"), explode),
	)

	backend := model.NewMockModel("mock").
		AddToolCalls(
			core.ToolCall{ID: "c1", Name: "explode"},
			core.ToolCall{ID: "c2", Name: "missing"},
			core.ToolCall{ID: "c3", Name: "submit_post", Arguments: map[string]any{"content": "hi"}},
		).
		AddResponse(model.Response{Content: "done"})

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rounds)
	assert.Equal(t, 3, report.ToolCalls)
	assert.Equal(t, 2, report.ToolErrors)
	assert.Zero(t, report.Failures)

	history := persona.History()
	require.Len(t, history, 8)
	assert.True(t, history[3].IsError)
	assert.Contains(t, history[3].Content, "kaboom")
	assert.True(t, history[4].IsError)
	assert.Contains(t, history[4].Content, core.ErrUnknownTool.Error())
	assert.False(t, history[5].IsError)
	assert.Equal(t, "done", history[7].Content)
	assert.NoError(t, core.ValidateTranscript(history))
}

func TestPersona_FailedRoundsRollBack(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithActionsPerSession(3))
	p.On("SubmitPost", mock.Anything, "u1", "hello").Return(&platform.Post{ID: "p1"}, nil).Once()

	backend := model.NewMockModel("mock").
		AddDecision(`{"action":{"type":"dance"}}`).
		AddDecisionError(errors.New("backend down")).
		AddAction(core.NewSubmitPost("hello"))

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rounds)
	assert.Equal(t, 2, report.Failures)
	require.Len(t, report.Errors, 2)
	assert.ErrorIs(t, report.Errors[0], core.ErrSchemaViolation)
	assert.NotErrorIs(t, report.Errors[1], core.ErrSchemaViolation)

	// Each failed round left nothing behind, so the third decision saw only
	// the system message and its own prompt.
	histories := backend.DecideHistories()
	require.Len(t, histories, 3)
	assert.Len(t, histories[2], 2)

	expected := testutil.NewHistoryBuilder("ignored").
		User("ignored").
		Call("ignored", "submit_post", map[string]any{"content": "hello"}).
		Result("Post created with id p1").
		Build()

	history := persona.History()
	require.Len(t, history, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].Role, history[i].Role)
	}
	assert.Equal(t, expected[3].Content, history[3].Content)
	assert.NoError(t, core.ValidateTranscript(history))
}

func TestPersona_FinishEndsSessionEarly(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithActionsPerSession(5), WithAllowFinish())

	backend := model.NewMockModel("mock").AddAction(core.NewFinishSession())

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.True(t, report.Finished)
	assert.Equal(t, 1, report.Rounds)
	assert.Equal(t, "Session finished", persona.History()[3].Content)

	// The flag does not leak into the next session.
	backend.AddAction(core.NewViewThread("p1"))
	p.On("ViewThread", mock.Anything, "p1").Return(&platform.Thread{ID: "p1"}, nil)
	report, err = persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.False(t, report.Finished)
	assert.Equal(t, 5, report.Rounds)
}

func TestPersona_FinishRejectedWhenNotAllowed(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithActionsPerSession(1))

	backend := model.NewMockModel("mock").AddAction(core.NewFinishSession())

	report, err := persona.Run(context.Background(), backend)
	require.NoError(t, err)
	assert.False(t, report.Finished)
	assert.Equal(t, 1, report.Failures)
	assert.ErrorIs(t, report.Errors[0], core.ErrSchemaViolation)
}

func TestPersona_ContextErrorsDowngradeToEmpty(t *testing.T) {
	p := testutil.NewMockPlatform()
	p.On("RegisterUser", mock.Anything, "Alice").Return(&platform.User{ID: "u1"}, nil)
	p.On("RecentFeed", mock.Anything).Return(nil, errors.New("connection refused"))
	p.On("Notifications", mock.Anything, "u1").Return(nil, errors.New("connection refused"))

	persona := NewPersona("Alice", "Alice loves gardening.", p, WithActionsPerSession(1))
	require.NoError(t, persona.Build(context.Background()))

	_, err := persona.Run(context.Background(), model.NewMockModel("mock"))
	require.NoError(t, err)

	system := persona.History()[0].Content
	assert.Contains(t, system, "You are Alice")
	assert.Contains(t, system, "Alice loves gardening.")
	assert.Contains(t, system, "Nobody has posted anything yet.")
}

func TestPersona_SystemPromptIncludesContext(t *testing.T) {
	p := testutil.NewMockPlatform()
	p.On("RegisterUser", mock.Anything, "Alice").Return(&platform.User{ID: "u1"}, nil)
	p.On("RecentFeed", mock.Anything).Return([]platform.Post{
		{ID: "p7", User: platform.User{ID: "u2", Name: "Barb"}, Content: "Tomatoes are overrated", Replies: 2},
	}, nil)
	p.On("Notifications", mock.Anything, "u1").Return([]platform.Notification{
		{ID: "n1", Kind: platform.NotificationReply, PostID: "p9", ParentID: "p3", From: platform.User{Name: "Marv998"}, Content: "nope"},
	}, nil)

	persona := NewPersona("Alice", "", p, WithActionsPerSession(1))
	require.NoError(t, persona.Build(context.Background()))
	_, err := persona.Run(context.Background(), model.NewMockModel("mock"))
	require.NoError(t, err)

	system := persona.History()[0].Content
	assert.Contains(t, system, "[p7] Barb (2 replies): Tomatoes are overrated")
	assert.Contains(t, system, "Marv998 replied to your post p3")
}

func TestPersona_ContextCancellation(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithActionsPerSession(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := persona.Run(ctx, model.NewMockModel("mock"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Rounds)
	assert.Equal(t, StateSessionIdle, persona.State())
}

func TestPersona_UnknownModeIsRejected(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p, WithMode(Mode("freeform")), WithActionsPerSession(1))

	backend := model.NewMockModel("mock").
		AddToolCalls(core.ToolCall{ID: "c1", Name: "submit_post", Arguments: map[string]any{"content": "hi"}})

	report, err := persona.Run(context.Background(), backend)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.ErrorContains(t, err, `unsupported mode "freeform"`)
	assert.Nil(t, report)
	assert.Empty(t, backend.Requests())
	assert.Empty(t, backend.DecideHistories())
	assert.Equal(t, StateBuilt, persona.State())
}

func TestPersona_RunRequiresBackend(t *testing.T) {
	p := testutil.NewMockPlatform()
	persona := builtPersona(t, p)

	_, err := persona.Run(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unbuilt", StateUnbuilt.String())
	assert.Equal(t, "session_idle", StateSessionIdle.String())
	assert.Equal(t, "state(9)", State(9).String())
}
