package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/store"
	"github.com/skillsmith/skillsmith/internal/workflow"
)

// NewWorkflowCmd creates the workflow command group: drives the Workflow
// Engine (E) one step at a time, plus reset/status/cancel.
func NewWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Drive a skill's eight-step workflow",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newWorkflowRunCmd())
	cmd.AddCommand(newWorkflowRerunCmd())
	cmd.AddCommand(newWorkflowResumeCmd())
	cmd.AddCommand(newWorkflowResetCmd())
	cmd.AddCommand(newWorkflowStatusCmd())
	cmd.AddCommand(newWorkflowCancelCmd())
	return cmd
}

func addStepFlags(cmd *cobra.Command) {
	cmd.Flags().Int("step", -1, "Step index to run (required, 0-7; steps 1 and 3 are human review)")
	cmd.Flags().Bool("pool", false, "Dispatch through the persistent helper pool instead of a one-shot process")
}

func stepFromFlags(cmd *cobra.Command) (int, bool, error) {
	step, _ := cmd.Flags().GetInt("step")
	if step < models.FirstStep || step > models.LastStep {
		return 0, false, errors.New("--step is required and must be 0-7")
	}
	usePool, _ := cmd.Flags().GetBool("pool")
	return step, usePool, nil
}

func newWorkflowRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <skill>",
		Short: "Run one step of a skill's workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, usePool, err := stepFromFlags(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return runWorkflowStep(cmd, args[0], step, workflow.RunOptions{}, usePool)
		},
	}
	addStepFlags(cmd)
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newWorkflowRerunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rerun <skill>",
		Short: "Re-run a completed step, prepending the rerun marker to its prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, usePool, err := stepFromFlags(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return runWorkflowStep(cmd, args[0], step, workflow.RunOptions{Rerun: true}, usePool)
		},
	}
	addStepFlags(cmd)
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newWorkflowResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <skill>",
		Short: "Resume step 0 without wiping existing context (unlike a fresh run)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, usePool, err := stepFromFlags(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return runWorkflowStep(cmd, args[0], step, workflow.RunOptions{Resume: true}, usePool)
		},
	}
	addStepFlags(cmd)
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newWorkflowResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <skill>",
		Short: "Discard a step and every step after it, rewinding the run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStep, _ := cmd.Flags().GetInt("from-step")
			if fromStep < models.FirstStep || fromStep > models.LastStep {
				return cmdErr(errors.New("--from-step is required and must be 0-7"))
			}
			skillName := args[0]

			if err := withDB(func(db *DB) error {
				env, err := loadRunnerEnv(db)
				if err != nil {
					return err
				}
				engine := workflow.NewEngine(db, env.appCfg.WorkspaceRoot, env.appCfg.SkillsRoot, workflow.NewBus(nil))
				return env.coord.WithLock(skillName, func() error {
					return engine.ResetFrom(skillName, fromStep)
				})
			}); err != nil {
				return err
			}

			type resp struct {
				SkillName string `json:"skill_name"`
				FromStep  int    `json:"from_step"`
			}
			return output.PrintSuccess(resp{SkillName: skillName, FromStep: fromStep})
		},
	}
	cmd.Flags().Int("from-step", -1, "Earliest step to discard (required, 0-7)")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newWorkflowStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <skill>",
		Short: "Show a skill's run and per-step status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]

			var run models.WorkflowRun
			var steps []models.WorkflowStep
			if err := withDB(func(db *DB) error {
				env, err := loadRunnerEnv(db)
				if err != nil {
					return err
				}
				engine := workflow.NewEngine(db, env.appCfg.WorkspaceRoot, env.appCfg.SkillsRoot, workflow.NewBus(nil))
				r, s, err := engine.Status(skillName)
				if err != nil {
					return err
				}
				run, steps = r, s
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Run   models.WorkflowRun    `json:"run"`
				Steps []models.WorkflowStep `json:"steps"`
			}
			return output.PrintSuccess(resp{Run: run, Steps: steps})
		},
	}
	return cmd
}

// newWorkflowCancelCmd signals the process currently running skill's
// workflow step, identified by the PID recorded in its open session row
// (§4.6): the running "workflow run" invocation is responsible for catching
// the signal and routing it through the one-shot cancellation contract
// (§4.4.1) before it exits.
func newWorkflowCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <skill>",
		Short: "Signal the in-progress workflow run for a skill to cancel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]

			var pid int
			if err := withDB(func(db *DB) error {
				sessions, err := store.ListSessions(db)
				if err != nil {
					return err
				}
				for _, s := range sessions {
					if s.SkillName == skillName {
						pid = s.PID
						return nil
					}
				}
				return fmt.Errorf("no active session for skill %q", skillName)
			}); err != nil {
				return err
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				return cmdErr(fmt.Errorf("find process %d: %w", pid, err))
			}
			if err := proc.Signal(syscall.SIGINT); err != nil {
				return cmdErr(fmt.Errorf("signal process %d: %w", pid, err))
			}

			type resp struct {
				SkillName string `json:"skill_name"`
				Signalled int    `json:"signalled_pid"`
			}
			return output.PrintSuccess(resp{SkillName: skillName, Signalled: pid})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
