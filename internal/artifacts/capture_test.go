package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestCapture_NewFileIsSavedToCatalogue(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(workspace, "widget", "context", "decisions.md"), "# decisions")

	captured, err := Capture(db, "widget", 4, workspace, "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(captured) != 1 || captured[0].RelativePath != "context/decisions.md" {
		t.Fatalf("unexpected capture result: %+v", captured)
	}

	a, err := store.GetArtifact(db, "widget", "context/decisions.md")
	if err != nil {
		t.Fatalf("GetArtifact failed: %v", err)
	}
	if a.Content != "# decisions" {
		t.Errorf("unexpected stored content: %q", a.Content)
	}
}

func TestCapture_SkipsUnchangedSize(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	content := "# decisions"
	writeFile(t, filepath.Join(workspace, "widget", "context", "decisions.md"), content)
	if _, err := Capture(db, "widget", 4, workspace, ""); err != nil {
		t.Fatalf("first Capture failed: %v", err)
	}

	captured, err := Capture(db, "widget", 4, workspace, "")
	if err != nil {
		t.Fatalf("second Capture failed: %v", err)
	}
	if len(captured) != 0 {
		t.Errorf("expected no-op on unchanged size, got %+v", captured)
	}
}

func TestCapture_Step0CapturesGlobSiblings(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(workspace, "widget", "context", "research-concepts.md"), "concepts")
	writeFile(t, filepath.Join(workspace, "widget", "context", "research-entities.md"), "entities")

	captured, err := Capture(db, "widget", 0, workspace, "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(captured) != 2 {
		t.Fatalf("expected both research files captured, got %+v", captured)
	}

	artifacts, err := store.ListArtifacts(db, "widget")
	if err != nil {
		t.Fatalf("ListArtifacts failed: %v", err)
	}
	if len(artifacts) != 2 {
		t.Errorf("expected 2 artifact rows, got %d", len(artifacts))
	}
}

func TestCapture_Step0MirrorsResearchConceptsToSkillsRoot(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()
	skills := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(workspace, "widget", "context", "research-concepts.md"), "concepts")

	if _, err := Capture(db, "widget", 0, workspace, skills); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(skills, "widget", "context", "research-concepts.md"))
	if err != nil {
		t.Fatalf("expected mirrored research-concepts.md under skills root: %v", err)
	}
	if string(got) != "concepts" {
		t.Errorf("unexpected mirrored content: %q", got)
	}
}

func TestCapture_Step5ReadsFromSkillsRootAndWalksReferences(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()
	skills := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(skills, "widget", "SKILL.md"), "# Widget skill")
	writeFile(t, filepath.Join(skills, "widget", "references", "api.md"), "# API")
	writeFile(t, filepath.Join(skills, "widget", "references", "nested", "detail.md"), "# Detail")

	captured, err := Capture(db, "widget", 5, workspace, skills)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(captured) != 3 {
		t.Fatalf("expected SKILL.md + 2 reference files captured, got %+v", captured)
	}
}

func TestCapture_Step5NoSkillsRootFallsBackToWorkspace(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(workspace, "widget", "SKILL.md"), "# Widget skill")

	captured, err := Capture(db, "widget", 5, workspace, "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(captured) != 1 || captured[0].RelativePath != "SKILL.md" {
		t.Fatalf("unexpected capture result: %+v", captured)
	}
}

func TestScanDisk_CapturesAcrossAllAgentSteps(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(workspace, "widget", "context", "research-concepts.md"), "concepts")
	writeFile(t, filepath.Join(workspace, "widget", "context", "decisions.md"), "decisions")
	writeFile(t, filepath.Join(workspace, "widget", "SKILL.md"), "# Widget")

	captured, err := ScanDisk(db, "widget", workspace, "")
	if err != nil {
		t.Fatalf("ScanDisk failed: %v", err)
	}
	if len(captured) != 3 {
		t.Fatalf("expected 3 files captured across steps, got %+v", captured)
	}
}

func TestCaptureWithRetry_SucceedsFirstTry(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()

	if err := store.CreateSkill(db, models.Skill{Name: "widget"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	writeFile(t, filepath.Join(workspace, "widget", "context", "decisions.md"), "# decisions")

	var retries int
	captured, err := CaptureWithRetry(context.Background(), db, "widget", 4, workspace, "", func(attempt int, err error) {
		retries++
	})
	if err != nil {
		t.Fatalf("CaptureWithRetry failed: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("unexpected capture result: %+v", captured)
	}
	if retries != 0 {
		t.Errorf("expected no retries on first-try success, got %d", retries)
	}
}

func TestCaptureWithRetry_PropagatesPersistentFailure(t *testing.T) {
	db := newTestDB(t)
	workspace := t.TempDir()
	// No skill row: GetArtifact inside captureFile will still succeed (just
	// ErrNotFound, which captureFile treats as "new"), but SaveArtifact
	// will fail its foreign key check on every attempt, so this exercises
	// the persistent-failure path without needing to fake real contention.
	writeFile(t, filepath.Join(workspace, "missing-skill", "context", "decisions.md"), "# decisions")

	_, err := CaptureWithRetry(context.Background(), db, "missing-skill", 4, workspace, "", nil)
	if err == nil {
		t.Fatal("expected persistent failure to surface an error")
	}
}
