// Package config loads process configuration from the environment and an
// optional .env file. It is read once at startup; the resulting Config is
// passed to the components that need it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hupe1980/bleater/agent"
	"github.com/hupe1980/bleater/logging"
)

// Backend names a model backend.
type Backend string

const (
	BackendOllama    Backend = "ollama"
	BackendGemini    Backend = "gemini"
	BackendAnthropic Backend = "anthropic"
)

const (
	defaultOllamaHost        = "http://127.0.0.1:11434"
	defaultNumCtx            = 16384
	defaultServerBindAddr    = "127.0.0.1"
	defaultServerHost        = "127.0.0.1"
	defaultServerPort        = 9999
	defaultMaxSteps          = 10
	defaultActionsPerSession = agent.DefaultActionsPerSession
)

// Config is the full process configuration.
type Config struct {
	Backend Backend
	Mode    agent.Mode

	OllamaHost  string
	OllamaModel string
	NumCtx      int

	GeminiAPIKey string
	GeminiModel  string

	AnthropicAPIKey string
	AnthropicModel  string

	ServerBindAddr string
	ServerHost     string
	ServerPort     int
	DatabaseURL    string // empty selects the in-memory store

	// MaxSteps is the fleet step budget; 0 runs until interrupted.
	MaxSteps          int
	ActionsPerSession int
	AllowFinish       bool

	LogLevel  logging.Level
	LogFormat string
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Backend:           BackendOllama,
		Mode:              agent.ModeStructured,
		OllamaHost:        defaultOllamaHost,
		NumCtx:            defaultNumCtx,
		ServerBindAddr:    defaultServerBindAddr,
		ServerHost:        defaultServerHost,
		ServerPort:        defaultServerPort,
		MaxSteps:          defaultMaxSteps,
		ActionsPerSession: defaultActionsPerSession,
		LogLevel:          logging.LevelInfo,
		LogFormat:         "text",
	}
}

// Load reads an optional .env file from the working directory, then the
// process environment. Variables already set in the environment win over
// the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, typically os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get("BLEATER_BACKEND"); v != "" {
		cfg.Backend = Backend(strings.ToLower(v))
	}
	if v := get("BLEATER_MODE"); v != "" {
		cfg.Mode = agent.Mode(strings.ToLower(v))
	}
	if v := get("OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	cfg.OllamaModel = get("OLLAMA_MODEL")
	cfg.GeminiAPIKey = get("GEMINI_API_KEY")
	cfg.GeminiModel = get("GEMINI_MODEL")
	cfg.AnthropicAPIKey = get("ANTHROPIC_API_KEY")
	cfg.AnthropicModel = get("ANTHROPIC_MODEL")
	cfg.DatabaseURL = get("DATABASE_URL")
	if v := get("SERVER_BIND_ADDR"); v != "" {
		cfg.ServerBindAddr = v
	}
	if v := get("SERVER_HOST"); v != "" {
		cfg.ServerHost = v
	}

	ints := []struct {
		key string
		dst *int
		min int
	}{
		{"NUM_CTX", &cfg.NumCtx, 1},
		{"SERVER_PORT", &cfg.ServerPort, 1},
		{"BLEATER_MAX_STEPS", &cfg.MaxSteps, 0},
		{"BLEATER_ACTIONS_PER_SESSION", &cfg.ActionsPerSession, 1},
	}
	for _, i := range ints {
		v := get(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", i.key, err)
		}
		if n < i.min {
			return Config{}, fmt.Errorf("parse %s: value must be >= %d", i.key, i.min)
		}
		*i.dst = n
	}

	if v := get("BLEATER_ALLOW_FINISH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse BLEATER_ALLOW_FINISH: %w", err)
		}
		cfg.AllowFinish = b
	}

	if v := get("BLEATER_LOG_LEVEL"); v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse BLEATER_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if v := get("BLEATER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks enumerations. Backend credentials are checked when the
// backend is constructed.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendOllama, BackendGemini, BackendAnthropic:
	default:
		return fmt.Errorf("validate config: unsupported BLEATER_BACKEND %q (allowed: %q, %q, %q)",
			c.Backend, BackendOllama, BackendGemini, BackendAnthropic)
	}

	switch c.Mode {
	case agent.ModeFreeForm, agent.ModeStructured:
	default:
		return fmt.Errorf("validate config: unsupported BLEATER_MODE %q (allowed: %q, %q)",
			c.Mode, agent.ModeFreeForm, agent.ModeStructured)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("validate config: unsupported BLEATER_LOG_FORMAT %q (allowed: %q, %q)", c.LogFormat, "text", "json")
	}

	return nil
}

// OllamaBaseURL is the OpenAI-compatible endpoint of the Ollama host.
func (c Config) OllamaBaseURL() string {
	return strings.TrimRight(c.OllamaHost, "/") + "/v1/"
}

// ListenAddr is the address the platform server binds to.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.ServerBindAddr, strconv.Itoa(c.ServerPort))
}

// PlatformURL is the base URL personas use to reach the platform.
func (c Config) PlatformURL() string {
	return "http://" + net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// Logger builds the process logger.
func (c Config) Logger(component string) logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:     c.LogLevel,
		Format:    c.LogFormat,
		Output:    os.Stderr,
		Component: component,
	})
}
