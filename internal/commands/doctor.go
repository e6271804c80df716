package commands

import (
	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/app"
	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/reconcile"
	"github.com/skillsmith/skillsmith/internal/store"
)

// NewDoctorCmd runs a reconciliation pass and reports its findings. It is
// the only command that runs the reconciler; other commands leave catalogue
// and disk as they find them.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, database connectivity, and disk/catalogue consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, dbSource, err := app.ResolveDBPathDetailed()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				DBPath   string            `json:"db_path"`
				DBSource string            `json:"db_source"`
				DBOK     bool              `json:"db_ok"`
				DBErr    string            `json:"db_error,omitempty"`
				Report   *reconcile.Report `json:"reconcile_report,omitempty"`
				Hint     string            `json:"hint,omitempty"`
			}

			db, err := store.InitDBWithPath(dbPath)
			if err != nil {
				return output.PrintSuccess(resp{
					DBPath:   dbPath,
					DBSource: dbSource,
					DBOK:     false,
					DBErr:    err.Error(),
					Hint:     "If this is running in a sandboxed environment, set db_path to a writable location or use --db-path.",
				})
			}
			defer func() { _ = store.CloseDB(db) }()

			settings, err := app.LoadSettings()
			if err != nil {
				return cmdErr(err)
			}

			rec := reconcile.New(db, settings.WorkspaceRoot, settings.SkillsRoot)
			report, err := rec.Run(cmd.Context())
			if err != nil {
				return cmdErr(err)
			}

			return output.PrintSuccess(resp{
				DBPath:   dbPath,
				DBSource: dbSource,
				DBOK:     true,
				Report:   report,
			})
		},
	}
	return cmd
}
