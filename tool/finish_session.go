package tool

import (
	"context"

	"github.com/hupe1980/bleater/core"
)

// finishSessionTool lets a free-form model end its session early.
type finishSessionTool struct {
	onFinish func()
}

// NewFinishSessionTool constructs the finish_session tool. onFinish runs on
// every call; the persona uses it to stop after the current round.
func NewFinishSessionTool(onFinish func()) Tool {
	return &finishSessionTool{onFinish: onFinish}
}

func (t *finishSessionTool) Name() string { return string(core.ActionFinishSession) }

func (t *finishSessionTool) Description() string {
	return "End this session when there is nothing more worth doing right now."
}

func (t *finishSessionTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *finishSessionTool) Call(_ context.Context, _ map[string]any) (any, error) {
	if t.onFinish != nil {
		t.onFinish()
	}
	return "Session finished", nil
}
