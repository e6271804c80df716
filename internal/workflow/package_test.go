package workflow

import (
	"archive/zip"
	"path/filepath"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/store"
)

func TestPackage_ZipsSkillMDAndReferences(t *testing.T) {
	db := newEngineTestDB(t)
	workspaceRoot := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget", SkillType: models.SkillTypeDomain}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if err := store.SaveArtifact(db, models.Artifact{
		SkillName: "widget", StepIndex: 5, RelativePath: "SKILL.md", Content: "# Widget\n", Size: 9,
	}); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	result, err := Package(db, workspaceRoot, "", "widget")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}
	if result.SizeBytes == 0 {
		t.Error("expected a non-zero sized archive")
	}

	if filepath.Base(result.FilePath) != "widget.skill" {
		t.Errorf("unexpected archive name: %s", result.FilePath)
	}

	zr, err := zip.OpenReader(result.FilePath)
	if err != nil {
		t.Fatalf("failed to open built archive: %v", err)
	}
	defer func() { _ = zr.Close() }()

	var sawSkillMD bool
	for _, f := range zr.File {
		if f.Name == "SKILL.md" {
			sawSkillMD = true
		}
	}
	if !sawSkillMD {
		t.Error("expected SKILL.md in the archive")
	}
}

// Staging always creates a skill's context/ directory up front (mirroring
// stage_artifacts), so a skill with no SKILL.md yet still has a source
// directory to package — Package succeeds with an archive that simply has
// no entries, rather than failing.
func TestPackage_NoSkillMDYetProducesEmptyArchive(t *testing.T) {
	db := newEngineTestDB(t)
	workspaceRoot := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "ghost", SkillType: models.SkillTypeDomain}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	result, err := Package(db, workspaceRoot, "", "ghost")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}

	zr, err := zip.OpenReader(result.FilePath)
	if err != nil {
		t.Fatalf("failed to open built archive: %v", err)
	}
	defer func() { _ = zr.Close() }()
	if len(zr.File) != 0 {
		t.Errorf("expected no entries, got %d", len(zr.File))
	}
}
