package artifacts

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillsmith/skillsmith/internal/store"
)

// Stage writes every catalogue artifact for skillName to the workspace
// filesystem so a helper can read its inputs (§4.2 "A → disk"). A file whose
// on-disk size already matches the stored artifact is left untouched; this
// never deletes a file.
func Stage(db *sql.DB, skillName, workspaceRoot, skillsRoot string) error {
	artifacts, err := store.ListArtifacts(db, skillName)
	if err != nil {
		return fmt.Errorf("stage %s: list artifacts: %w", skillName, err)
	}

	workspaceDir := skillWorkspaceDir(workspaceRoot, skillName)
	if err := os.MkdirAll(contextDir(workspaceDir), 0o755); err != nil {
		return fmt.Errorf("stage %s: create context dir: %w", skillName, err)
	}

	var skillsContextDir string
	if skillsRoot != "" {
		skillsContextDir = contextDir(skillSkillsDir(skillsRoot, skillName))
		if err := os.MkdirAll(skillsContextDir, 0o755); err != nil {
			return fmt.Errorf("stage %s: create skills context dir: %w", skillName, err)
		}
	}

	for _, a := range artifacts {
		dest := filepath.Join(workspaceDir, a.RelativePath)
		if err := writeIfChanged(dest, a.Content); err != nil {
			return fmt.Errorf("stage %s: %w", skillName, err)
		}

		if skillsContextDir != "" && contextOutputFiles[a.RelativePath] {
			mirror := filepath.Join(skillsContextDir, filepath.Base(a.RelativePath))
			if err := writeIfChanged(mirror, a.Content); err != nil {
				return fmt.Errorf("stage %s: mirror %s: %w", skillName, a.RelativePath, err)
			}
		}
	}
	return nil
}

// writeIfChanged writes content to path only when the file is absent or its
// size differs from len(content) — a cheap proxy for "unchanged" that avoids
// write amplification on every stage call (§4.2, original_source's size
// guard in stage_artifacts/reconcile_single_file).
func writeIfChanged(path, content string) error {
	if info, err := os.Stat(path); err == nil && info.Size() == int64(len(content)) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
