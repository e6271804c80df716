package artifacts

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.InitDBWithPath(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("InitDBWithPath failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStage_WritesNewArtifact(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if err := store.SaveArtifact(db, models.Artifact{
		SkillName: "widget", StepIndex: 0, RelativePath: "context/research-concepts.md",
		Content: "# research", Size: int64(len("# research")),
	}); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	if err := Stage(db, "widget", workspace, ""); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(workspace, "widget", "context", "research-concepts.md"))
	if err != nil {
		t.Fatalf("expected staged file, got error: %v", err)
	}
	if string(got) != "# research" {
		t.Errorf("unexpected staged content: %q", got)
	}
}

func TestStage_SkipsUnchangedFile(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	content := "# decisions"
	if err := store.SaveArtifact(db, models.Artifact{
		SkillName: "widget", StepIndex: 4, RelativePath: "context/decisions.md",
		Content: content, Size: int64(len(content)),
	}); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	if err := Stage(db, "widget", workspace, ""); err != nil {
		t.Fatalf("first Stage failed: %v", err)
	}

	path := filepath.Join(workspace, "widget", "context", "decisions.md")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}

	if err := os.Chtimes(path, before.ModTime(), before.ModTime()); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}
	if err := Stage(db, "widget", workspace, ""); err != nil {
		t.Fatalf("second Stage failed: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("expected unchanged-size file to be left untouched, mtime changed")
	}
}

func TestStage_MirrorsContextOutputsUnderSkillsRoot(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()
	skills := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	content := "final decisions"
	if err := store.SaveArtifact(db, models.Artifact{
		SkillName: "widget", StepIndex: 4, RelativePath: "context/decisions.md",
		Content: content, Size: int64(len(content)),
	}); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	if err := Stage(db, "widget", workspace, skills); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(skills, "widget", "context", "decisions.md"))
	if err != nil {
		t.Fatalf("expected mirrored file under skills root: %v", err)
	}
	if string(got) != content {
		t.Errorf("unexpected mirrored content: %q", got)
	}
}

func TestStage_NonContextOutputNotMirrored(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()
	skills := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	content := "# validation"
	if err := store.SaveArtifact(db, models.Artifact{
		SkillName: "widget", StepIndex: 6, RelativePath: "context/agent-validation-log.md",
		Content: content, Size: int64(len(content)),
	}); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	if err := Stage(db, "widget", workspace, skills); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(skills, "widget", "context", "agent-validation-log.md")); !os.IsNotExist(err) {
		t.Errorf("expected non-context-output to stay out of skills root, err=%v", err)
	}
}
