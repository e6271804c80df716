package commands

import (
	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/procutil"
	"github.com/skillsmith/skillsmith/internal/store"
)

// NewSessionCmd creates the session command group: manual Coordinator (F)
// access to a skill's session row, the PID-tagged lease the Reconciler
// checks to decide whether a skill is owned by a live instance.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage per-skill session leases",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newSessionBeginCmd())
	cmd.AddCommand(newSessionEndCmd())
	cmd.AddCommand(newSessionListCmd())
	return cmd
}

func newSessionBeginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "begin <skill>",
		Short: "Open a session for a skill under this instance's PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]
			var sessionID string
			if err := withDB(func(db *DB) error {
				coord, err := thisInstanceCoordinator(db)
				if err != nil {
					return err
				}
				id, err := coord.BeginSession(skillName)
				if err != nil {
					return err
				}
				sessionID = id
				return nil
			}); err != nil {
				return err
			}
			type resp struct {
				SkillName string `json:"skill_name"`
				SessionID string `json:"session_id"`
			}
			return output.PrintSuccess(resp{SkillName: skillName, SessionID: sessionID})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newSessionEndCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "end <session-id>",
		Short: "Close a session by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			if err := withDB(func(db *DB) error {
				return store.EndSession(db, sessionID)
			}); err != nil {
				return err
			}
			type resp struct {
				SessionID string `json:"session_id"`
				Ended     bool   `json:"ended"`
			}
			return output.PrintSuccess(resp{SessionID: sessionID, Ended: true})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

type sessionListEntry struct {
	SkillName string `json:"skill_name"`
	SessionID string `json:"session_id"`
	PID       int    `json:"pid"`
	Alive     bool   `json:"alive"`
}

func newSessionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every open session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []sessionListEntry
			if err := withDB(func(db *DB) error {
				raw, err := store.ListSessions(db)
				if err != nil {
					return err
				}
				for _, s := range raw {
					entries = append(entries, sessionListEntry{
						SkillName: s.SkillName,
						SessionID: s.ID,
						PID:       s.PID,
						Alive:     procutil.IsAlive(s.PID),
					})
				}
				return nil
			}); err != nil {
				return err
			}
			type resp struct {
				Count    int                `json:"count"`
				Sessions []sessionListEntry `json:"sessions"`
			}
			return output.PrintSuccess(resp{Count: len(entries), Sessions: entries})
		},
	}
	return cmd
}
