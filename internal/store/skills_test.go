package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := InitDBWithPath(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("InitDBWithPath failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestCreateSkill_InsertsRunAndSteps(t *testing.T) {
	db := newTestDB(t)

	s := models.Skill{Name: "triage-bot", Domain: "support", SkillType: models.SkillTypeDomain, SourceOrigin: models.SourceOriginCreated}
	if err := CreateSkill(db, s); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	got, err := GetSkill(db, "triage-bot")
	if err != nil {
		t.Fatalf("GetSkill failed: %v", err)
	}
	if got.Domain != "support" || got.SkillType != models.SkillTypeDomain {
		t.Errorf("unexpected skill: %+v", got)
	}

	run, err := GetWorkflowRun(db, "triage-bot")
	if err != nil {
		t.Fatalf("GetWorkflowRun failed: %v", err)
	}
	if run.CurrentStep != 0 || run.Status != models.RunStatusPending {
		t.Errorf("unexpected initial run: %+v", run)
	}

	steps, err := ListWorkflowSteps(db, "triage-bot")
	if err != nil {
		t.Fatalf("ListWorkflowSteps failed: %v", err)
	}
	if len(steps) != models.LastStep-models.FirstStep+1 {
		t.Errorf("expected %d steps, got %d", models.LastStep-models.FirstStep+1, len(steps))
	}
}

func TestCreateSkill_RejectsInvalidName(t *testing.T) {
	db := newTestDB(t)

	err := CreateSkill(db, models.Skill{Name: "../escape"})
	if err == nil {
		t.Fatal("expected error for path-traversal name")
	}
	var precondition *models.PreconditionError
	if !errors.As(err, &precondition) {
		t.Errorf("expected *models.PreconditionError, got %T", err)
	}
}

func TestCreateSkill_RejectsUnknownSkillType(t *testing.T) {
	db := newTestDB(t)

	err := CreateSkill(db, models.Skill{Name: "widget", SkillType: "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown skill type")
	}
}

func TestGetSkill_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := GetSkill(db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSkills_OrderedByName(t *testing.T) {
	db := newTestDB(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := CreateSkill(db, models.Skill{Name: name}); err != nil {
			t.Fatalf("CreateSkill(%s) failed: %v", name, err)
		}
	}

	skills, err := ListSkills(db)
	if err != nil {
		t.Fatalf("ListSkills failed: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, w := range want {
		if skills[i].Name != w {
			t.Errorf("position %d: want %s, got %s", i, w, skills[i].Name)
		}
	}
}

func TestDeleteSkill_CascadesToWorkflowRows(t *testing.T) {
	db := newTestDB(t)

	if err := CreateSkill(db, models.Skill{Name: "ephemeral"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if err := DeleteSkill(db, "ephemeral"); err != nil {
		t.Fatalf("DeleteSkill failed: %v", err)
	}

	if _, err := GetWorkflowRun(db, "ephemeral"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected workflow run to be gone, got %v", err)
	}
}

func TestDeleteSkill_NotFound(t *testing.T) {
	db := newTestDB(t)

	if err := DeleteSkill(db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
