package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// SetImportedOrigin records (or updates) the remote origin of an imported or
// marketplace skill, so a later "update from origin" operation has
// something to diff against (§6.3 supplement). Upserts on skill_name since a
// skill's recorded origin can be corrected without re-importing it.
func SetImportedOrigin(db *sql.DB, origin models.ImportedSkillOrigin) error {
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO imported_skills (skill_name, owner, repo, ref)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(skill_name) DO UPDATE SET owner = excluded.owner, repo = excluded.repo, ref = excluded.ref
	`, origin.SkillName, origin.Owner, origin.Repo, origin.Ref)
	if err != nil {
		return fmt.Errorf("set imported origin: %w", err)
	}
	return nil
}

// GetImportedOrigin returns the recorded remote origin for a skill, or
// ErrNotFound if the skill was created locally rather than imported.
func GetImportedOrigin(db *sql.DB, skillName string) (models.ImportedSkillOrigin, error) {
	var o models.ImportedSkillOrigin
	err := db.QueryRowContext(context.Background(), `
		SELECT skill_name, owner, repo, ref, imported_at FROM imported_skills WHERE skill_name = ?
	`, skillName).Scan(&o.SkillName, &o.Owner, &o.Repo, &o.Ref, &o.ImportedAt)
	if err == sql.ErrNoRows {
		return models.ImportedSkillOrigin{}, ErrNotFound
	}
	if err != nil {
		return models.ImportedSkillOrigin{}, fmt.Errorf("get imported origin: %w", err)
	}
	return o, nil
}
