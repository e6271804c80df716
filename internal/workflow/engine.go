package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillsmith/skillsmith/internal/artifacts"
	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/sidecar"
	"github.com/skillsmith/skillsmith/internal/store"
)

// Engine drives the fixed eight-stage pipeline for one catalogue: building
// a step's prompt and sidecar configuration, dispatching it, and reacting
// to its terminal event by capturing artifacts and transitioning state
// (grounded on run_workflow_step, reset_workflow_step). Bus is the single
// sink every Dispatcher the caller builds must be wired to, so RunStep can
// watch for the one agent_id it just dispatched.
type Engine struct {
	DB            *sql.DB
	WorkspaceRoot string
	SkillsRoot    string
	Bus           *Bus
}

// NewEngine builds an Engine around an already-open catalogue and a Bus
// the caller has wired into its dispatchers' sinks.
func NewEngine(db *sql.DB, workspaceRoot, skillsRoot string, bus *Bus) *Engine {
	return &Engine{DB: db, WorkspaceRoot: workspaceRoot, SkillsRoot: skillsRoot, Bus: bus}
}

// RunOptions distinguishes a fresh run of step 0 from a resumed or
// rerun invocation: resume skips the fresh-context wipe a brand-new run
// performs, and rerun additionally prepends rerunMarker to the prompt.
type RunOptions struct {
	Resume bool
	Rerun  bool
}

// StepResult is what a completed (or failed) step run reports back.
type StepResult struct {
	AgentID   string
	Success   bool
	Cancelled bool
	Captured  []models.Artifact
}

// RunStep drives one agent step end to end: reconciling and staging
// artifacts, checking step 5's decisions.md precondition, building the
// prompt and sidecar configuration, dispatching, and — once the dispatched
// agent_id reaches a terminal event on the Engine's Bus — capturing
// artifacts and advancing (or erroring) the run. It blocks until that
// terminal event arrives or ctx is cancelled, mirroring the teacher's
// synchronous CLI invocation style rather than a GUI event stream.
func (e *Engine) RunStep(ctx context.Context, skillName string, step int, opts RunOptions, dispatcher Dispatcher, settings models.SettingsDocument) (StepResult, error) {
	if !models.IsAgentStep(step) {
		return StepResult{}, &models.PreconditionError{
			Subject: "step_index",
			Reason:  "steps 1 and 3 are human review and auto-advance; they are never dispatched",
		}
	}

	run, err := store.GetWorkflowRun(e.DB, skillName)
	if err != nil {
		return StepResult{}, fmt.Errorf("load workflow run: %w", err)
	}

	if step == models.FirstStep && !opts.Resume && !opts.Rerun {
		if err := artifacts.WipeContext(e.WorkspaceRoot, skillName); err != nil {
			return StepResult{}, fmt.Errorf("wipe context: %w", err)
		}
		if err := store.Transact(e.DB, func(tx *sql.Tx) error {
			return store.DeleteArtifactsFrom(tx, skillName, models.FirstStep)
		}); err != nil {
			return StepResult{}, fmt.Errorf("clear step 0 artifacts: %w", err)
		}
	}

	if _, err := artifacts.ScanDisk(e.DB, skillName, e.WorkspaceRoot, e.SkillsRoot); err != nil {
		return StepResult{}, fmt.Errorf("reconcile disk artifacts: %w", err)
	}
	if err := artifacts.Stage(e.DB, skillName, e.WorkspaceRoot, e.SkillsRoot); err != nil {
		return StepResult{}, fmt.Errorf("stage artifacts: %w", err)
	}

	if step == 5 {
		if err := ValidateDecisionsExist(e.DB, e.WorkspaceRoot, e.SkillsRoot, skillName); err != nil {
			return StepResult{}, err
		}
	}

	stepCfg, err := GetStepConfig(step)
	if err != nil {
		return StepResult{}, err
	}

	skill, err := store.GetSkill(e.DB, skillName)
	if err != nil {
		return StepResult{}, fmt.Errorf("load skill: %w", err)
	}

	prompt := BuildPrompt(step, skillName, run.Domain, e.WorkspaceRoot, e.SkillsRoot, opts.Rerun)
	startedAt := time.Now()
	agentID := MakeAgentID(skillName, step, startedAt.UnixMilli())
	agentName := DeriveAgentName(skill.SkillType, stepCfg.PromptTemplate)

	cfg := sidecar.Config{
		Prompt:         prompt,
		APIKey:         settings.APIToken,
		Cwd:            artifacts.WorkspaceSkillDir(e.WorkspaceRoot, skillName),
		AllowedTools:   stepCfg.AllowedTools,
		MaxTurns:       stepCfg.MaxTurns,
		PermissionMode: "bypassPermissions",
		AgentName:      agentName,
	}

	// The model actually sent over the wire is only ever forced when debug
	// mode is on; otherwise the field is left blank and the helper resolves
	// the model from the invoked agent's own front matter. effectiveModel is
	// still computed either way, purely so BuildBetas knows whether the
	// model in play is opus-class.
	effectiveModel := e.resolveEffectiveModel(step, settings)
	if settings.DebugMode {
		cfg.Model = ResolveModelID("sonnet")
		effectiveModel = cfg.Model
	}

	if settings.ExtendedThinking {
		if budget, ok := ThinkingBudgetForStep(step); ok {
			cfg.MaxThinkingTokens = budget
			cfg.Betas = BuildBetas(settings.ExtendedContext, budget, true, effectiveModel)
		}
	} else {
		cfg.Betas = BuildBetas(settings.ExtendedContext, 0, false, effectiveModel)
	}

	if err := store.Transact(e.DB, func(tx *sql.Tx) error {
		if err := store.UpsertWorkflowStepStatus(tx, skillName, step, models.StepStatusInProgress); err != nil {
			return err
		}
		return store.AdvanceWorkflowRun(tx, skillName, step, models.RunStatusInProgress)
	}); err != nil {
		return StepResult{}, fmt.Errorf("mark step in progress: %w", err)
	}

	type outcome struct {
		success   bool
		cancelled bool
	}
	done := make(chan outcome, 1)
	e.Bus.Watch(agentID, func(ev sidecar.Event) {
		switch ev.Type {
		case sidecar.EventExit:
			select {
			case done <- outcome{success: ev.Success}:
			default:
			}
		case sidecar.EventCancelled:
			select {
			case done <- outcome{cancelled: true}:
			default:
			}
		}
	})
	defer e.Bus.Unwatch(agentID)

	if err := dispatcher.Dispatch(ctx, agentID, cfg); err != nil {
		return StepResult{AgentID: agentID}, fmt.Errorf("dispatch step %d: %w", step, err)
	}

	select {
	case out := <-done:
		return e.finishStep(skillName, step, agentID, effectiveModel, startedAt, out.success, out.cancelled)
	case <-ctx.Done():
		// A cancelled context (ctrl-C, or a separate "workflow cancel"
		// invocation signalling this process) only interrupts the agent
		// directly in one-shot mode; pool mode has no per-request cancel and
		// relies on its own request timeout instead (§4.4.2).
		if canceller, ok := dispatcher.(Canceller); ok {
			_ = canceller.Cancel(agentID)
			select {
			case out := <-done:
				return e.finishStep(skillName, step, agentID, effectiveModel, startedAt, out.success, out.cancelled)
			case <-time.After(cancelGraceWindow):
			}
		}
		return e.finishStep(skillName, step, agentID, effectiveModel, startedAt, false, true)
	}
}

// cancelGraceWindow bounds how long RunStep waits for the registry's own
// cancellation watchdog (§4.4.1) to confirm the agent exited before giving
// up and recording it cancelled anyway.
const cancelGraceWindow = 6 * time.Second

// resolveEffectiveModel names the non-debug model used only to decide the
// interleaved-thinking beta: a user's per-step override from settings if
// one is recorded, else the step's built-in default.
func (e *Engine) resolveEffectiveModel(step int, settings models.SettingsDocument) string {
	if shorthand, ok := settings.StepModelOverrides[step]; ok && shorthand != "" {
		return ResolveModelID(shorthand)
	}
	return ResolveModelID(DefaultModelForStep(step))
}

// finishStep runs once a dispatched agent_id reaches a terminal event: it
// captures whatever the agent wrote (retried against the brief window
// where a file is still being flushed to disk), records the invocation's
// usage-dashboard row, then transitions the step and run rows. A failed or
// cancelled run reverts the step to pending so it can be retried without a
// reset-from; a successful run marks it completed and advances
// current_step, completing the run once step 7 finishes.
func (e *Engine) finishStep(skillName string, step int, agentID, model string, startedAt time.Time, success, cancelled bool) (StepResult, error) {
	logRetry := func(attempt int, err error) {
		slog.Default().Warn("capture retry", "skill", skillName, "step", step, "attempt", attempt, "error", err)
	}
	captured, capErr := artifacts.CaptureWithRetry(context.Background(), e.DB, skillName, step, e.WorkspaceRoot, e.SkillsRoot, logRetry)
	if capErr != nil && success && !cancelled {
		return StepResult{AgentID: agentID}, fmt.Errorf("capture step %d output: %w", step, capErr)
	}

	result := StepResult{AgentID: agentID, Success: success, Cancelled: cancelled, Captured: captured}

	completedAt := time.Now()
	runSuccess := success
	agentRun := models.AgentRunRecord{
		AgentID:     agentID,
		SkillName:   skillName,
		StepIndex:   step,
		Model:       model,
		Success:     &runSuccess,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
	}
	if cancelled {
		agentRun.Success = nil
	}
	if err := store.InsertAgentRun(e.DB, agentRun); err != nil {
		return result, fmt.Errorf("record agent run %s: %w", agentID, err)
	}

	err := store.Transact(e.DB, func(tx *sql.Tx) error {
		if cancelled || !success {
			if err := store.UpsertWorkflowStepStatus(tx, skillName, step, models.StepStatusPending); err != nil {
				return err
			}
			return store.AdvanceWorkflowRun(tx, skillName, step, models.RunStatusError)
		}

		if err := store.UpsertWorkflowStepStatus(tx, skillName, step, models.StepStatusCompleted); err != nil {
			return err
		}
		next := step + 1
		status := models.RunStatusInProgress
		if next > models.LastStep {
			status = models.RunStatusCompleted
		}
		return store.AdvanceWorkflowRun(tx, skillName, next, status)
	})
	if err != nil {
		return result, fmt.Errorf("transition step %d: %w", step, err)
	}
	return result, nil
}

// ResetFrom discards fromStep..=LastStep's disk outputs and catalogue rows
// and rewinds the run back to fromStep, pending (grounded on
// reset_workflow_step). It is the only way to re-enter an earlier step
// once later ones have produced output.
func (e *Engine) ResetFrom(skillName string, fromStep int) error {
	artifacts.ResetOutputs(e.WorkspaceRoot, e.SkillsRoot, skillName, fromStep)

	return store.Transact(e.DB, func(tx *sql.Tx) error {
		if err := store.ResetWorkflowSteps(tx, skillName, fromStep); err != nil {
			return err
		}
		if err := store.DeleteArtifactsFrom(tx, skillName, fromStep); err != nil {
			return err
		}
		return store.ResetWorkflowRun(tx, skillName, fromStep)
	})
}

// Status returns a skill's run summary and its per-step rows.
func (e *Engine) Status(skillName string) (models.WorkflowRun, []models.WorkflowStep, error) {
	run, err := store.GetWorkflowRun(e.DB, skillName)
	if err != nil {
		return models.WorkflowRun{}, nil, fmt.Errorf("get workflow run: %w", err)
	}
	steps, err := store.ListWorkflowSteps(e.DB, skillName)
	if err != nil {
		return models.WorkflowRun{}, nil, fmt.Errorf("list workflow steps: %w", err)
	}
	return run, steps, nil
}
