package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/app"
	"github.com/skillsmith/skillsmith/internal/coordinator"
	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/sidecar"
	"github.com/skillsmith/skillsmith/internal/store"
	"github.com/skillsmith/skillsmith/internal/workflow"
)

// runnerEnv bundles everything a workflow subcommand needs to drive the
// Engine: the open catalogue, resolved roots, a per-process Coordinator
// identity, and the loaded settings document.
type runnerEnv struct {
	db       *DB
	appCfg   app.Settings
	settings models.SettingsDocument
	coord    *coordinator.Coordinator
}

func loadRunnerEnv(db *DB) (runnerEnv, error) {
	appCfg, err := app.LoadSettings()
	if err != nil {
		return runnerEnv{}, fmt.Errorf("load app settings: %w", err)
	}
	settings, err := store.GetSettings(db)
	if err != nil {
		return runnerEnv{}, fmt.Errorf("load catalogue settings: %w", err)
	}
	coord := coordinator.New(db, coordinator.NewInstance(appCfg.InstanceID))
	return runnerEnv{db: db, appCfg: appCfg, settings: settings, coord: coord}, nil
}

// buildDispatcher wires a fresh Bus and a Dispatcher for one step run.
// usePool selects the persistent-pool path (§4.4.2); the default is
// one-shot (§4.4.1), matching the original's default invocation path. Both
// branches return the same Bus their dispatcher publishes to, so the
// caller's Engine watches exactly what the dispatcher feeds.
func buildDispatcher(ctx context.Context, env runnerEnv, skillName string, usePool bool) (*workflow.Bus, workflow.Dispatcher, error) {
	bus := workflow.NewBus(sidecar.SinkFunc(logSidecarEvent))

	if usePool {
		pool := sidecar.NewPool(sidecar.ExecStarter, env.appCfg.HelperScriptPath, bus)
		return bus, workflow.PoolDispatcher{Pool: pool, Skill: skillName, TimeoutSec: 300}, nil
	}

	nodeBin, err := sidecar.ResolveNodeBinary(ctx)
	if err != nil {
		return nil, nil, err
	}
	registry := sidecar.NewRegistry(sidecar.ExecStarter)
	return bus, workflow.OneShotDispatcher{
		Registry:     registry,
		NodeBin:      nodeBin,
		HelperScript: env.appCfg.HelperScriptPath,
		Sink:         bus,
	}, nil
}

func logSidecarEvent(e sidecar.Event) {
	switch e.Type {
	case sidecar.EventMessage:
		slog.Info("sidecar message", "agent_id", e.AgentID, "line", e.Line)
	case sidecar.EventStderr:
		slog.Info("sidecar stderr", "agent_id", e.AgentID, "line", e.Line)
	case sidecar.EventExit:
		slog.Info("sidecar exit", "agent_id", e.AgentID, "success", e.Success)
	case sidecar.EventCancelled:
		slog.Info("sidecar cancelled", "agent_id", e.AgentID)
	}
}

// withCancelSignal returns a context cancelled on SIGINT/SIGTERM, alongside
// a cleanup func to stop listening once the command returns. A "workflow
// cancel" invocation from a second process reaches this one the same way:
// by signalling the PID recorded in this skill's session row.
func withCancelSignal(ctx context.Context) (context.Context, func()) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runWorkflowStep drives one RunStep call under the skill's lock and
// session, the pattern every run/rerun/resume subcommand shares.
func runWorkflowStep(cmd *cobra.Command, skillName string, step int, opts workflow.RunOptions, usePool bool) error {
	var result workflow.StepResult
	if err := withDB(func(db *DB) error {
		env, err := loadRunnerEnv(db)
		if err != nil {
			return err
		}

		ctx, stop := withCancelSignal(cmd.Context())
		defer stop()

		bus, dispatcher, err := buildDispatcher(ctx, env, skillName, usePool)
		if err != nil {
			return err
		}

		engine := workflow.NewEngine(db, env.appCfg.WorkspaceRoot, env.appCfg.SkillsRoot, bus)

		return env.coord.WithSession(skillName, func() error {
			return env.coord.WithLock(skillName, func() error {
				r, err := engine.RunStep(ctx, skillName, step, opts, dispatcher, env.settings)
				if err != nil {
					return err
				}
				result = r
				return nil
			})
		})
	}); err != nil {
		return err
	}

	return output.PrintSuccess(result)
}
