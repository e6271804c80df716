package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/procutil"
	"github.com/skillsmith/skillsmith/internal/store"
)

// NewSidecarCmd creates the sidecar command group. A persistent pool entry
// (§4.4.2) only lives for the lifetime of the process that spawned it, and
// this CLI is one process per invocation rather than a long-running daemon
// — so there is no in-memory Pool for a separate "status" invocation to
// inspect. What does survive across invocations is exactly what the
// Coordinator already tracks: a skill's open session names the PID of
// whichever process is currently driving its workflow (one-shot or pool
// dispatch alike), so that is what these commands introspect and signal.
func NewSidecarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidecar",
		Short: "Introspect and tear down in-progress workflow processes",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newSidecarStatusCmd())
	cmd.AddCommand(newSidecarShutdownCmd())
	return cmd
}

type sidecarSessionStatus struct {
	SkillName string `json:"skill_name"`
	PID       int    `json:"pid"`
	Alive     bool   `json:"alive"`
}

func newSidecarStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List skills with a currently open workflow session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []sidecarSessionStatus
			if err := withDB(func(db *DB) error {
				sessions, err := store.ListSessions(db)
				if err != nil {
					return err
				}
				for _, s := range sessions {
					rows = append(rows, sidecarSessionStatus{
						SkillName: s.SkillName,
						PID:       s.PID,
						Alive:     procutil.IsAlive(s.PID),
					})
				}
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count    int                    `json:"count"`
				Sessions []sidecarSessionStatus `json:"sessions"`
			}
			return output.PrintSuccess(resp{Count: len(rows), Sessions: rows})
		},
	}
	return cmd
}

func newSidecarShutdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown [skill]",
		Short: "Signal one skill's in-progress workflow process to stop, or every live one with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if !all && len(args) != 1 {
				return cmdErr(fmt.Errorf("pass a skill name, or --all"))
			}

			var signalled []sidecarSessionStatus
			if err := withDB(func(db *DB) error {
				sessions, err := store.ListSessions(db)
				if err != nil {
					return err
				}
				for _, s := range sessions {
					if !all && s.SkillName != args[0] {
						continue
					}
					if !procutil.IsAlive(s.PID) {
						continue
					}
					proc, err := os.FindProcess(s.PID)
					if err != nil {
						continue
					}
					_ = proc.Signal(syscall.SIGINT)
					signalled = append(signalled, sidecarSessionStatus{SkillName: s.SkillName, PID: s.PID, Alive: true})
				}
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count     int                    `json:"count"`
				Signalled []sidecarSessionStatus `json:"signalled"`
			}
			return output.PrintSuccess(resp{Count: len(signalled), Signalled: signalled})
		},
	}
	cmd.Flags().Bool("all", false, "Signal every skill with a live session")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
