package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/bleater/config"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	roster, err := parseRoster([]byte(`
personas:
  - name: " Alice "
    description: Alice loves gardening.
  - name: Bob
    description: Bob fixes bikes.
    user_id: u42
    allow_finish: true
`))
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Alice", roster[0].Name)
	assert.Equal(t, "u42", roster[1].UserID)
	assert.True(t, roster[1].AllowFinish)

	_, err = parseRoster([]byte("personas: []"))
	assert.Error(t, err)

	_, err = parseRoster([]byte("personas:\n  - name: A\n  - name: A\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = parseRoster([]byte("personas:\n  - description: nameless\n"))
	assert.ErrorContains(t, err, "no name")
}

func TestLoadRoster(t *testing.T) {
	roster, err := loadRoster("")
	require.NoError(t, err)
	assert.Equal(t, []string{"BashLama", "Marv998", "Barb"}, []string{roster[0].Name, roster[1].Name, roster[2].Name})

	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("personas:\n  - name: Zed\n"), 0o600))
	roster, err = loadRoster(path)
	require.NoError(t, err)
	assert.Equal(t, "Zed", roster[0].Name)

	_, err = loadRoster(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewBackend_Configuration(t *testing.T) {
	ctx := context.Background()
	logger := logging.NoOpLogger{}

	cfg := config.Default()
	_, err := newBackend(ctx, cfg, logger)
	assert.ErrorIs(t, err, core.ErrConfiguration, "ollama requires a model")

	cfg.OllamaModel = "llama3.2"
	backend, err := newBackend(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", backend.Info().Provider)

	cfg.Backend = config.BackendGemini
	_, err = newBackend(ctx, cfg, logger)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	cfg.Backend = config.BackendAnthropic
	_, err = newBackend(ctx, cfg, logger)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	cfg.AnthropicAPIKey = "key"
	backend, err = newBackend(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", backend.Info().Provider)
}
