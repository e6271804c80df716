package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/app"
	"github.com/skillsmith/skillsmith/internal/coordinator"
	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/store"
)

// NewLockCmd creates the lock command group: manual Coordinator (F) access
// to a skill's exclusive lease, for operators who need to inspect or break
// a stuck lock outside of a normal workflow run.
func NewLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and manage per-skill exclusive leases",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newLockAcquireCmd())
	cmd.AddCommand(newLockReleaseCmd())
	cmd.AddCommand(newLockStatusCmd())
	return cmd
}

func thisInstanceCoordinator(db *DB) (*coordinator.Coordinator, error) {
	appCfg, err := app.LoadSettings()
	if err != nil {
		return nil, err
	}
	return coordinator.New(db, coordinator.NewInstance(appCfg.InstanceID)), nil
}

func newLockAcquireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquire <skill>",
		Short: "Acquire a skill's exclusive lease for this instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]
			if err := withDB(func(db *DB) error {
				coord, err := thisInstanceCoordinator(db)
				if err != nil {
					return err
				}
				return coord.AcquireLock(skillName)
			}); err != nil {
				return err
			}
			type resp struct {
				SkillName string `json:"skill_name"`
				Acquired  bool   `json:"acquired"`
			}
			return output.PrintSuccess(resp{SkillName: skillName, Acquired: true})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newLockReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <skill>",
		Short: "Release a skill's lease held by this instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]
			if err := withDB(func(db *DB) error {
				coord, err := thisInstanceCoordinator(db)
				if err != nil {
					return err
				}
				return coord.ReleaseLock(skillName)
			}); err != nil {
				return err
			}
			type resp struct {
				SkillName string `json:"skill_name"`
				Released  bool   `json:"released"`
			}
			return output.PrintSuccess(resp{SkillName: skillName, Released: true})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newLockStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <skill>",
		Short: "Show the current holder of a skill's lease, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]
			var lock models.Lock
			var held bool
			if err := withDB(func(db *DB) error {
				l, err := store.GetLock(db, skillName)
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				lock = l
				held = true
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				SkillName string      `json:"skill_name"`
				Held      bool        `json:"held"`
				Lock      *models.Lock `json:"lock,omitempty"`
			}
			r := resp{SkillName: skillName, Held: held}
			if held {
				r.Lock = &lock
			}
			return output.PrintSuccess(r)
		},
	}
	return cmd
}
