package main

import (
	"context"
	"errors"

	"github.com/hupe1980/bleater/agent"
	"github.com/hupe1980/bleater/config"
	"github.com/hupe1980/bleater/fleet"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/platform"
)

func herd(ctx context.Context, cfg config.Config, rosterPath string, logger logging.Logger) error {
	roster, err := loadRoster(rosterPath)
	if err != nil {
		return err
	}

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := platform.NewClient(cfg.PlatformURL(), func(o *platform.ClientOptions) { o.Logger = logger })
	if err != nil {
		return err
	}

	personas := make([]fleet.Persona, 0, len(roster))
	for _, entry := range roster {
		optFns := []func(o *agent.Options){
			agent.WithMode(cfg.Mode),
			agent.WithActionsPerSession(cfg.ActionsPerSession),
			agent.WithLogger(logger),
		}
		if entry.UserID != "" {
			optFns = append(optFns, agent.WithUserID(entry.UserID))
		}
		if cfg.AllowFinish || entry.AllowFinish {
			optFns = append(optFns, agent.WithAllowFinish())
		}
		personas = append(personas, agent.NewPersona(entry.Name, entry.Description, client, optFns...))
	}

	fleetOpts := []func(o *fleet.Options){fleet.WithLogger(logger)}
	if cfg.MaxSteps == 0 {
		fleetOpts = append(fleetOpts, fleet.WithUnboundedSteps())
	} else {
		fleetOpts = append(fleetOpts, fleet.WithMaxSteps(cfg.MaxSteps))
	}

	f, err := fleet.New(client, backend, personas, fleetOpts...)
	if err != nil {
		return err
	}

	logger.Info("fleet.start", "personas", len(personas), "backend", backend.Info().Provider, "model", backend.Info().Name)

	report, err := f.Run(ctx)
	logger.Info("fleet.done",
		"steps", report.Steps,
		"sessions", report.Sessions,
		"skipped", report.Skipped,
		"tool_calls", report.ToolCalls,
		"failures", report.Failures,
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runAll serves the platform and drives the fleet against it until the fleet
// finishes or ctx is cancelled.
func runAll(ctx context.Context, cfg config.Config, rosterPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- serve(ctx, cfg, cfg.Logger("server"))
		cancel()
	}()

	herdErr := herd(ctx, cfg, rosterPath, cfg.Logger("fleet"))
	cancel()

	return errors.Join(herdErr, <-serveErr)
}
