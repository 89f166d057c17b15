package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUserPrompt(t *testing.T) {
	text, err := DefaultUserPrompt.Render(UserData{Name: "Barb", Round: 1, Total: 5})
	require.NoError(t, err)
	assert.Contains(t, text, "Action 1 of 5. What does Barb do next?")
	assert.Contains(t, text, "start a new thread")

	text, err = DefaultUserPrompt.Render(UserData{Name: "Barb", Round: 2, Total: 5})
	require.NoError(t, err)
	assert.Equal(t, "Action 2 of 5. What does Barb do next?", text)
}

func TestDefaultSystemPrompt_Modes(t *testing.T) {
	data := SystemData{Name: "Barb", Description: "Barb bakes.", ActionsPerSession: 3, Mode: string(ModeStructured)}

	text, err := DefaultSystemPrompt.Render(data)
	require.NoError(t, err)
	assert.Contains(t, text, "You have 3 actions in this session.")
	assert.Contains(t, text, "choose exactly one action")
	assert.NotContains(t, text, "finish the session")

	data.Mode = string(ModeFreeForm)
	data.AllowFinish = true
	text, err = DefaultSystemPrompt.Render(data)
	require.NoError(t, err)
	assert.Contains(t, text, "Use the tools")
	assert.Contains(t, text, "finish the session")
}

func TestNewPrompt(t *testing.T) {
	p, err := NewPrompt("custom", "Hi {{upper .Name}}")
	require.NoError(t, err)
	assert.False(t, p.IsZero())

	text, err := p.Render(UserData{Name: "marv"})
	require.NoError(t, err)
	assert.Equal(t, "Hi MARV", text)

	_, err = NewPrompt("broken", "{{.Name")
	assert.Error(t, err)
	assert.True(t, Prompt{}.IsZero())
}
