package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// SaveArtifact upserts on (skill, step, path) with content, size, and
// updated_at (§4.1). Callers pass the disk-relative path, never an absolute
// one, since the catalogue row never carries a filesystem root.
func SaveArtifact(q Querier, a models.Artifact) error {
	_, err := q.Exec(`
		INSERT INTO workflow_artifacts (skill_name, step_index, relative_path, content, size, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (skill_name, step_index, relative_path) DO UPDATE SET
			content = excluded.content,
			size = excluded.size,
			updated_at = CURRENT_TIMESTAMP
	`, a.SkillName, a.StepIndex, a.RelativePath, a.Content, a.Size)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// GetArtifact reads by (skill, path), returning ErrNotFound if absent. The
// step index is not part of the lookup key here because callers addressing
// a single file by path don't always know which step produced it.
func GetArtifact(q Querier, skillName, relativePath string) (models.Artifact, error) {
	var a models.Artifact
	err := q.QueryRow(`
		SELECT skill_name, step_index, relative_path, content, size, updated_at
		FROM workflow_artifacts WHERE skill_name = ? AND relative_path = ?
	`, skillName, relativePath).Scan(&a.SkillName, &a.StepIndex, &a.RelativePath, &a.Content, &a.Size, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Artifact{}, ErrNotFound
	}
	if err != nil {
		return models.Artifact{}, fmt.Errorf("get artifact: %w", err)
	}
	return a, nil
}

// ListArtifactsForStep returns every artifact recorded for a given step,
// ordered by relative path, used by packaging (§4.5) and staging (§4.2).
func ListArtifactsForStep(q Querier, skillName string, step int) ([]models.Artifact, error) {
	rows, err := q.Query(`
		SELECT skill_name, step_index, relative_path, content, size, updated_at
		FROM workflow_artifacts WHERE skill_name = ? AND step_index = ? ORDER BY relative_path
	`, skillName, step)
	if err != nil {
		return nil, fmt.Errorf("list artifacts for step: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Artifact
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(&a.SkillName, &a.StepIndex, &a.RelativePath, &a.Content, &a.Size, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListArtifacts returns every artifact recorded for a skill across all
// steps, ordered by step then path, used by the full-skill package build.
func ListArtifacts(q Querier, skillName string) ([]models.Artifact, error) {
	rows, err := q.Query(`
		SELECT skill_name, step_index, relative_path, content, size, updated_at
		FROM workflow_artifacts WHERE skill_name = ? ORDER BY step_index, relative_path
	`, skillName)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Artifact
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(&a.SkillName, &a.StepIndex, &a.RelativePath, &a.Content, &a.Size, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteArtifactsForStep removes every artifact row recorded for a step,
// used when a step is reset and its prior outputs are discarded.
func DeleteArtifactsForStep(tx *sql.Tx, skillName string, step int) error {
	_, err := tx.ExecContext(context.Background(), `
		DELETE FROM workflow_artifacts WHERE skill_name = ? AND step_index = ?
	`, skillName, step)
	if err != nil {
		return fmt.Errorf("delete artifacts for step: %w", err)
	}
	return nil
}

// DeleteArtifactsFrom removes every artifact row at or after fromStep,
// the range-delete reset-from(N) needs: steps N..=last are thrown away in
// one statement rather than one DeleteArtifactsForStep call per step.
func DeleteArtifactsFrom(tx *sql.Tx, skillName string, fromStep int) error {
	_, err := tx.ExecContext(context.Background(), `
		DELETE FROM workflow_artifacts WHERE skill_name = ? AND step_index >= ?
	`, skillName, fromStep)
	if err != nil {
		return fmt.Errorf("delete artifacts from step: %w", err)
	}
	return nil
}
