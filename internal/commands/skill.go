package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/output"
	"github.com/skillsmith/skillsmith/internal/store"
)

// NewSkillCmd creates the skill command group: catalogue CRUD over the
// Catalogue component (A).
func NewSkillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage skills in the catalogue",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newSkillCreateCmd())
	cmd.AddCommand(newSkillListCmd())
	cmd.AddCommand(newSkillGetCmd())
	cmd.AddCommand(newSkillDeleteCmd())
	cmd.AddCommand(newSkillTagCmd())
	return cmd
}

func newSkillCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new skill and its eight-step workflow run",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			domain, _ := cmd.Flags().GetString("domain")
			skillType, _ := cmd.Flags().GetString("type")
			origin, _ := cmd.Flags().GetString("origin")
			desc, _ := cmd.Flags().GetString("desc")
			owner, _ := cmd.Flags().GetString("owner")
			repo, _ := cmd.Flags().GetString("repo")
			ref, _ := cmd.Flags().GetString("ref")

			if name == "" {
				return cmdErr(errors.New("--name is required"))
			}

			sourceOrigin := models.SkillSourceOrigin(origin)
			if (owner != "" || repo != "") && sourceOrigin != models.SourceOriginImported && sourceOrigin != models.SourceOriginMarketplace {
				return cmdErr(errors.New("--owner/--repo/--ref require --origin imported or marketplace"))
			}

			skill := models.Skill{
				Name:         name,
				Domain:       domain,
				SkillType:    models.SkillType(skillType),
				SourceOrigin: sourceOrigin,
				Description:  desc,
			}

			if err := withDB(func(db *DB) error {
				if err := store.CreateSkill(db, skill); err != nil {
					return err
				}
				if owner != "" || repo != "" {
					return store.SetImportedOrigin(db, models.ImportedSkillOrigin{
						SkillName: name,
						Owner:     owner,
						Repo:      repo,
						Ref:       ref,
					})
				}
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(skill)
		},
	}

	cmd.Flags().String("name", "", "Skill name (required)")
	cmd.Flags().String("domain", "", "Domain tag")
	cmd.Flags().String("type", "", "Skill type (platform|domain|source|data-engineering)")
	cmd.Flags().String("origin", "", "Source origin tag (created|imported|marketplace|team)")
	cmd.Flags().String("desc", "", "Description")
	cmd.Flags().String("owner", "", "Remote owner/org, for --origin imported or marketplace")
	cmd.Flags().String("repo", "", "Remote repository name, for --origin imported or marketplace")
	cmd.Flags().String("ref", "", "Remote ref (branch, tag, or commit), for --origin imported or marketplace")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newSkillListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every skill in the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			var skills []models.Skill
			if err := withDB(func(db *DB) error {
				s, err := store.ListSkills(db)
				if err != nil {
					return err
				}
				skills = s
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count  int            `json:"count"`
				Skills []models.Skill `json:"skills"`
			}
			return output.PrintSuccess(resp{Count: len(skills), Skills: skills})
		},
	}
	return cmd
}

func newSkillGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show one skill and its tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var skill models.Skill
			var tags []string
			var origin *models.ImportedSkillOrigin
			if err := withDB(func(db *DB) error {
				s, err := store.GetSkill(db, name)
				if err != nil {
					return err
				}
				skill = s
				t, err := store.ListTags(db, name)
				if err != nil {
					return err
				}
				tags = t

				o, err := store.GetImportedOrigin(db, name)
				if err == nil {
					origin = &o
				} else if !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Skill  models.Skill                `json:"skill"`
				Tags   []string                    `json:"tags"`
				Origin *models.ImportedSkillOrigin `json:"origin,omitempty"`
			}
			return output.PrintSuccess(resp{Skill: skill, Tags: tags, Origin: origin})
		},
	}
	return cmd
}

func newSkillDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a skill and every row and artifact that belongs to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := withDB(func(db *DB) error {
				return store.DeleteSkill(db, name)
			}); err != nil {
				return err
			}
			type resp struct {
				Deleted string `json:"deleted"`
			}
			return output.PrintSuccess(resp{Deleted: name})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newSkillTagCmd() *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "tag <name>",
		Short: "Replace a skill's tag set (lowercased, trimmed, deduplicated on write)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var saved []string
			if err := withDB(func(db *DB) error {
				if err := store.SetTags(db, name, tags); err != nil {
					return err
				}
				t, err := store.ListTags(db, name)
				if err != nil {
					return err
				}
				saved = t
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				SkillName string   `json:"skill_name"`
				Tags      []string `json:"tags"`
			}
			return output.PrintSuccess(resp{SkillName: name, Tags: saved})
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to set, comma-separated (replaces the existing set)")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}
