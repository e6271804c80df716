package store

import (
	"errors"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestSaveArtifact_UpsertsOnConflict(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "artsy"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	a := models.Artifact{SkillName: "artsy", StepIndex: 0, RelativePath: "context/research-concepts.md", Content: "v1", Size: 2}
	if err := SaveArtifact(db, a); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	a.Content = "v2 longer"
	a.Size = int64(len(a.Content))
	if err := SaveArtifact(db, a); err != nil {
		t.Fatalf("SaveArtifact (update) failed: %v", err)
	}

	got, err := GetArtifact(db, "artsy", "context/research-concepts.md")
	if err != nil {
		t.Fatalf("GetArtifact failed: %v", err)
	}
	if got.Content != "v2 longer" || got.Size != int64(len("v2 longer")) {
		t.Errorf("unexpected artifact after upsert: %+v", got)
	}
}

func TestGetArtifact_NotFound(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "empty"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	if _, err := GetArtifact(db, "empty", "context/missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListArtifactsForStep_FiltersByStep(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "multi"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	_ = SaveArtifact(db, models.Artifact{SkillName: "multi", StepIndex: 0, RelativePath: "a.md", Content: "x"})
	_ = SaveArtifact(db, models.Artifact{SkillName: "multi", StepIndex: 2, RelativePath: "b.md", Content: "y"})

	step0, err := ListArtifactsForStep(db, "multi", 0)
	if err != nil {
		t.Fatalf("ListArtifactsForStep failed: %v", err)
	}
	if len(step0) != 1 || step0[0].RelativePath != "a.md" {
		t.Errorf("unexpected step 0 artifacts: %+v", step0)
	}
}

func TestListArtifacts_OrderedAcrossSteps(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "all-steps"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	_ = SaveArtifact(db, models.Artifact{SkillName: "all-steps", StepIndex: 2, RelativePath: "z.md"})
	_ = SaveArtifact(db, models.Artifact{SkillName: "all-steps", StepIndex: 0, RelativePath: "a.md"})

	all, err := ListArtifacts(db, "all-steps")
	if err != nil {
		t.Fatalf("ListArtifacts failed: %v", err)
	}
	if len(all) != 2 || all[0].StepIndex != 0 || all[1].StepIndex != 2 {
		t.Errorf("expected artifacts ordered by step, got %+v", all)
	}
}
