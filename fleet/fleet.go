package fleet

import (
	"context"
	"time"

	"github.com/hupe1980/bleater/agent"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/model"
	"github.com/hupe1980/bleater/platform"
)

const (
	// DefaultMaxSteps is the step budget when none is configured.
	DefaultMaxSteps = 10
	// DefaultPollInterval is the delay between readiness probes.
	DefaultPollInterval = 500 * time.Millisecond
)

// Persona is the part of *agent.Persona the fleet drives.
type Persona interface {
	Name() string
	Built() bool
	Build(ctx context.Context) error
	Run(ctx context.Context, backend model.Backend) (*agent.SessionReport, error)
}

var _ Persona = (*agent.Persona)(nil)

// Options configures a Fleet.
type Options struct {
	// MaxSteps is the number of steps to run. Nil runs until the context ends.
	MaxSteps *int
	// PollInterval is the delay between readiness probes.
	PollInterval time.Duration
	// RetryFailedBuilds rebuilds unbuilt personas at the start of their turn.
	RetryFailedBuilds bool
	// Logger receives fleet events.
	Logger logging.Logger
}

// Steps returns a MaxSteps value for n steps.
func Steps(n int) *int { return &n }

// WithMaxSteps bounds the number of steps.
func WithMaxSteps(n int) func(o *Options) {
	return func(o *Options) { o.MaxSteps = Steps(n) }
}

// WithUnboundedSteps runs steps until the context is cancelled.
func WithUnboundedSteps() func(o *Options) {
	return func(o *Options) { o.MaxSteps = nil }
}

// WithPollInterval sets the readiness probe interval.
func WithPollInterval(d time.Duration) func(o *Options) {
	return func(o *Options) { o.PollInterval = d }
}

// WithRetryFailedBuilds sets whether unbuilt personas are rebuilt on later steps.
func WithRetryFailedBuilds(retry bool) func(o *Options) {
	return func(o *Options) { o.RetryFailedBuilds = retry }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Report summarizes a fleet run.
type Report struct {
	Steps         int // completed steps
	Sessions      int // sessions that returned a report
	Skipped       int // persona turns skipped because the persona was unbuilt
	BuildFailures int
	Rounds        int
	ToolCalls     int
	Failures      int // failed rounds across all sessions
	Finished      int // sessions ended early through finish_session
}

func (r *Report) add(s *agent.SessionReport) {
	r.Sessions++
	r.Rounds += s.Rounds
	r.ToolCalls += s.ToolCalls
	r.Failures += s.Failures
	if s.Finished {
		r.Finished++
	}
}

// Fleet coordinates personas sharing one platform and one backend.
type Fleet struct {
	platform     platform.Platform
	backend      model.Backend
	personas     []Persona
	maxSteps     *int
	pollInterval time.Duration
	retryBuilds  bool
	logger       logging.Logger
}

// New creates a fleet. Personas keep their order for building and running.
func New(p platform.Platform, backend model.Backend, personas []Persona, optFns ...func(o *Options)) (*Fleet, error) {
	opts := Options{
		MaxSteps:          Steps(DefaultMaxSteps),
		PollInterval:      DefaultPollInterval,
		RetryFailedBuilds: true,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if p == nil {
		return nil, core.NewConfigurationError("fleet", "Platform")
	}
	if backend == nil {
		return nil, core.NewConfigurationError("fleet", "Backend")
	}
	if opts.MaxSteps != nil && *opts.MaxSteps < 0 {
		return nil, &core.ConfigurationError{Component: "fleet", Field: "MaxSteps", Message: "must not be negative"}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &Fleet{
		platform:     p,
		backend:      backend,
		personas:     append([]Persona(nil), personas...),
		maxSteps:     opts.MaxSteps,
		pollInterval: opts.PollInterval,
		retryBuilds:  opts.RetryFailedBuilds,
		logger:       logging.OrNoOp(opts.Logger),
	}, nil
}

// WaitReady polls the platform until it answers. Probe failures are retried
// at the poll interval for as long as ctx allows.
func (f *Fleet) WaitReady(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		err := f.platform.Ready(ctx)
		if err == nil {
			f.logger.Info("fleet.platform.ready", "attempts", attempt)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Debug("fleet.platform.not_ready", "attempt", attempt, "error", err.Error())
		timer.Reset(f.pollInterval)
	}
}

// Run waits for readiness, builds every persona and runs the configured
// number of steps. The report is returned even when ctx ends the run.
func (f *Fleet) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := f.WaitReady(ctx); err != nil {
		return report, err
	}

	for _, p := range f.personas {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		f.build(ctx, p, report)
	}

	for step := 1; f.maxSteps == nil || step <= *f.maxSteps; step++ {
		f.logger.Info("fleet.step.start", "step", step)

		if err := f.step(ctx, step, report); err != nil {
			return report, err
		}

		report.Steps++
		f.logger.Info("fleet.step.end", "step", step, "sessions", report.Sessions, "skipped", report.Skipped)
	}

	return report, nil
}

func (f *Fleet) step(ctx context.Context, step int, report *Report) error {
	for _, p := range f.personas {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !p.Built() && f.retryBuilds {
			f.build(ctx, p, report)
		}
		if !p.Built() {
			report.Skipped++
			f.logger.Info("fleet.persona.skipped", "step", step, "persona", p.Name())
			continue
		}

		session, err := p.Run(ctx, f.backend)
		if session != nil {
			report.add(session)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Error("fleet.persona.run_error", "step", step, "persona", p.Name(), "error", err.Error())
		}
	}

	return nil
}

func (f *Fleet) build(ctx context.Context, p Persona, report *Report) {
	if p.Built() {
		return
	}
	if err := p.Build(ctx); err != nil {
		report.BuildFailures++
		f.logger.Warn("fleet.persona.build_failed", "persona", p.Name(), "error", err.Error())
	}
}
