package commands

import (
	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/workflow"
)

// NewPackageCmd wraps workflow.Package: stages a skill's artifacts to disk
// and zips them into a distributable .skill archive.
func NewPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package <skill>",
		Short: "Stage and zip a skill's artifacts into a .skill archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skillName := args[0]

			var result workflow.PackageResult
			if err := withDB(func(db *DB) error {
				env, err := loadRunnerEnv(db)
				if err != nil {
					return err
				}
				r, err := workflow.Package(db, env.appCfg.WorkspaceRoot, env.appCfg.SkillsRoot, skillName)
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				SkillName string `json:"skill_name"`
				FilePath  string `json:"file_path"`
				SizeBytes int64  `json:"size_bytes"`
			}
			return output.PrintSuccess(resp{SkillName: skillName, FilePath: result.FilePath, SizeBytes: result.SizeBytes})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
