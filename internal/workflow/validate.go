package workflow

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillsmith/skillsmith/internal/artifacts"
	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/store"
)

// ValidateDecisionsExist enforces the Build step's precondition: a
// non-empty context/decisions.md must exist somewhere before step 5 can
// run, or Build would start with nothing to work from (grounded on
// validate_decisions_exist_inner's three-tier check). The tiers are tried
// in order skills root, then workspace root, then the catalogue's staged
// copy, so a file already on disk is trusted before falling back to
// whatever was last captured into SQLite.
func ValidateDecisionsExist(db *sql.DB, workspaceRoot, skillsRoot, skillName string) error {
	const decisionsRel = "context/decisions.md"

	if skillsRoot != "" {
		path := filepath.Join(artifacts.SkillOutputDir(workspaceRoot, skillsRoot, skillName), decisionsRel)
		if nonEmptyFile(path) {
			return nil
		}
	}

	workspacePath := filepath.Join(artifacts.WorkspaceSkillDir(workspaceRoot, skillName), decisionsRel)
	if nonEmptyFile(workspacePath) {
		return nil
	}

	artifact, err := store.GetArtifact(db, skillName, decisionsRel)
	if err == nil && strings.TrimSpace(artifact.Content) != "" {
		return nil
	}

	return &models.ValidationError{
		SkillName: skillName,
		Reason:    "cannot start Build step: decisions.md was not found on disk or in the catalogue; re-run the Reasoning step first",
	}
}

func nonEmptyFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) != ""
}
