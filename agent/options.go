package agent

import (
	"fmt"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/platform"
	"github.com/hupe1980/bleater/tool"
)

// Mode selects the backend operation a persona uses each round.
type Mode string

const (
	// ModeFreeForm calls Converse and executes every returned tool call.
	ModeFreeForm Mode = "free_form"
	// ModeStructured calls Decide and dispatches the single decided action.
	ModeStructured Mode = "structured"
)

func (m Mode) validate() error {
	switch m {
	case ModeFreeForm, ModeStructured:
		return nil
	default:
		return &core.ConfigurationError{
			Component: "persona",
			Field:     "Mode",
			Message:   fmt.Sprintf("unsupported mode %q (allowed: %q, %q)", m, ModeFreeForm, ModeStructured),
		}
	}
}

// DefaultActionsPerSession is the round budget of a session.
const DefaultActionsPerSession = 5

// ToolFactory builds one identity-bound tool once the persona's user ID is known.
type ToolFactory func(p platform.Platform, userID string) tool.Tool

// DefaultTools are the social tools every persona gets.
var DefaultTools = []ToolFactory{
	tool.NewSubmitPostTool,
	tool.NewSubmitReplyTool,
	func(p platform.Platform, _ string) tool.Tool { return tool.NewViewThreadTool(p) },
	tool.NewReadNotificationsTool,
}

// Options configures a Persona.
//
// Use functional options with NewPersona to override defaults.
type Options struct {
	Mode              Mode
	ActionsPerSession int
	// UserID binds the persona to an existing platform identity; Build then
	// skips registration.
	UserID string
	// AllowFinish offers the finish_session action and tool.
	AllowFinish  bool
	Tools        []ToolFactory
	SystemPrompt Prompt
	UserPrompt   Prompt
	Logger       logging.Logger
}

func defaultOptions() Options {
	return Options{
		Mode:              ModeStructured,
		ActionsPerSession: DefaultActionsPerSession,
		Tools:             DefaultTools,
		SystemPrompt:      DefaultSystemPrompt,
		UserPrompt:        DefaultUserPrompt,
		Logger:            logging.NoOpLogger{},
	}
}

// WithMode sets the interaction mode.
func WithMode(mode Mode) func(o *Options) {
	return func(o *Options) { o.Mode = mode }
}

// WithActionsPerSession sets the round budget of each session.
func WithActionsPerSession(n int) func(o *Options) {
	return func(o *Options) { o.ActionsPerSession = n }
}

// WithUserID binds the persona to an already registered identity.
func WithUserID(id string) func(o *Options) {
	return func(o *Options) { o.UserID = id }
}

// WithAllowFinish enables early session termination.
func WithAllowFinish() func(o *Options) {
	return func(o *Options) { o.AllowFinish = true }
}

// WithTools replaces the tool factories.
func WithTools(factories ...ToolFactory) func(o *Options) {
	return func(o *Options) { o.Tools = factories }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithPrompts replaces the system and per-round prompt templates. A zero
// Prompt keeps the default.
func WithPrompts(system, user Prompt) func(o *Options) {
	return func(o *Options) {
		o.SystemPrompt = system
		o.UserPrompt = user
	}
}
