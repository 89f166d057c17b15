package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/model"
	"github.com/hupe1980/bleater/platform"
	"github.com/hupe1980/bleater/tool"
)

// ErrNotBuilt is returned by Run before a successful Build.
var ErrNotBuilt = errors.New("persona not built")

// State is the lifecycle state of a Persona.
type State int

const (
	// StateUnbuilt means no platform identity is bound yet.
	StateUnbuilt State = iota
	// StateBuilt means the identity and tools are bound.
	StateBuilt
	// StateSessionActive means a session is running.
	StateSessionActive
	// StateSessionIdle means the last session has ended.
	StateSessionIdle
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateSessionActive:
		return "session_active"
	case StateSessionIdle:
		return "session_idle"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionReport summarizes one Run.
type SessionReport struct {
	Persona    string
	Rounds     int     // rounds started, including failed ones
	ToolCalls  int     // tool calls dispatched
	ToolErrors int     // tool calls that produced an error message
	Failures   int     // rounds dropped after a backend error or schema violation
	Errors     []error // the round failures, in order
	Finished   bool    // the session ended through finish_session
}

// Persona is one simulated platform identity with its own conversation.
//
// A Persona is driven by one goroutine at a time; it holds no locks.
type Persona struct {
	name        string
	description string
	userID      string
	platform    platform.Platform
	registry    *tool.Registry
	history     []core.Message
	state       State
	finish      bool
	opts        Options
	logger      logging.Logger
}

// NewPersona creates an unbuilt persona. description is the character sheet
// rendered into every session's system prompt.
func NewPersona(name, description string, p platform.Platform, optFns ...func(o *Options)) *Persona {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ActionsPerSession <= 0 {
		opts.ActionsPerSession = DefaultActionsPerSession
	}
	if opts.SystemPrompt.IsZero() {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.UserPrompt.IsZero() {
		opts.UserPrompt = DefaultUserPrompt
	}

	return &Persona{
		name:        name,
		description: description,
		userID:      opts.UserID,
		platform:    p,
		registry:    tool.NewRegistry(),
		state:       StateUnbuilt,
		opts:        opts,
		logger:      logging.With(logging.OrNoOp(opts.Logger), "persona", name),
	}
}

// Name returns the display name.
func (p *Persona) Name() string { return p.name }

// Description returns the character description.
func (p *Persona) Description() string { return p.description }

// UserID returns the platform identity, empty until registered.
func (p *Persona) UserID() string { return p.userID }

// State returns the lifecycle state.
func (p *Persona) State() State { return p.state }

// Built reports whether Build has succeeded.
func (p *Persona) Built() bool { return p.state != StateUnbuilt }

// Mode returns the interaction mode.
func (p *Persona) Mode() Mode { return p.opts.Mode }

// Registry returns the tool registry. It is empty until Build succeeds.
func (p *Persona) Registry() *tool.Registry { return p.registry }

// History returns a copy of the current session transcript.
func (p *Persona) History() []core.Message { return core.CloneMessages(p.history) }

// Build binds the persona to a platform identity and its tools. It registers
// the name unless a user ID is already set, then populates and freezes the
// registry. Building a built persona does nothing. On failure the persona
// stays unbuilt and Build may be called again.
func (p *Persona) Build(ctx context.Context) error {
	if p.state != StateUnbuilt {
		return nil
	}

	if p.userID == "" {
		user, err := p.platform.RegisterUser(ctx, p.name)
		if err != nil {
			p.logger.Warn("persona.build.failed", "error", err.Error())
			return fmt.Errorf("build persona %q: %w", p.name, err)
		}
		p.userID = user.ID
		p.logger.Info("persona.registered", "user_id", p.userID)
	}

	registry := tool.NewRegistry()
	tools := make([]tool.Tool, 0, len(p.opts.Tools)+1)
	for _, factory := range p.opts.Tools {
		tools = append(tools, factory(p.platform, p.userID))
	}
	if p.opts.AllowFinish {
		tools = append(tools, tool.NewFinishSessionTool(func() { p.finish = true }))
	}
	if err := registry.Register(tools...); err != nil {
		return fmt.Errorf("build persona %q: %w", p.name, err)
	}
	registry.Freeze()

	p.registry = registry
	p.state = StateBuilt
	p.logger.Debug("persona.built", "user_id", p.userID, "tools", registry.Names())

	return nil
}

// Run performs one session against backend: a fresh system prompt from the
// current platform context followed by up to ActionsPerSession rounds. Round
// failures are recorded in the report and never end the session; only
// context cancellation does.
func (p *Persona) Run(ctx context.Context, backend model.Backend) (*SessionReport, error) {
	if p.state == StateUnbuilt {
		return nil, ErrNotBuilt
	}
	if backend == nil {
		return nil, core.NewConfigurationError("persona", "Backend")
	}
	if err := p.opts.Mode.validate(); err != nil {
		return nil, err
	}

	p.state = StateSessionActive
	defer func() { p.state = StateSessionIdle }()

	report := &SessionReport{Persona: p.name}
	p.finish = false
	p.history = nil

	system, err := p.renderSystem(ctx)
	if err != nil {
		return report, err
	}
	p.history = append(p.history, core.NewSystemMessage(system))

	p.logger.Info("persona.session.start", "mode", string(p.opts.Mode), "budget", p.opts.ActionsPerSession)

	for round := 1; round <= p.opts.ActionsPerSession; round++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Rounds++
		p.logger.Debug("persona.round.start", "round", round)

		var err error
		switch p.opts.Mode {
		case ModeFreeForm:
			err = p.converseRound(ctx, backend, round, report)
		case ModeStructured:
			err = p.decideRound(ctx, backend, round, report)
		default:
			return report, p.opts.Mode.validate()
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Failures++
			report.Errors = append(report.Errors, err)
			p.logger.Warn("persona.round.failed", "round", round, "error", err.Error())
		}

		if p.finish {
			report.Finished = true
			p.logger.Info("persona.session.finish_requested", "round", round)
			break
		}
	}

	p.logger.Info("persona.session.end",
		"rounds", report.Rounds,
		"tool_calls", report.ToolCalls,
		"tool_errors", report.ToolErrors,
		"failures", report.Failures,
	)

	return report, nil
}
