package store

import (
	"errors"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestSetImportedOrigin_RecordsOrigin(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "imported-one", SourceOrigin: models.SourceOriginImported}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	origin := models.ImportedSkillOrigin{
		SkillName: "imported-one",
		Owner:     "acme",
		Repo:      "skills",
		Ref:       "main",
	}
	if err := SetImportedOrigin(db, origin); err != nil {
		t.Fatalf("SetImportedOrigin failed: %v", err)
	}

	got, err := GetImportedOrigin(db, "imported-one")
	if err != nil {
		t.Fatalf("GetImportedOrigin failed: %v", err)
	}
	if got.Owner != "acme" || got.Repo != "skills" || got.Ref != "main" {
		t.Errorf("unexpected origin: %+v", got)
	}
	if got.ImportedAt.IsZero() {
		t.Error("expected imported_at to be set")
	}
}

func TestSetImportedOrigin_UpsertsOnSkillName(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "re-pointed", SourceOrigin: models.SourceOriginImported}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	if err := SetImportedOrigin(db, models.ImportedSkillOrigin{SkillName: "re-pointed", Owner: "acme", Repo: "skills", Ref: "main"}); err != nil {
		t.Fatalf("first SetImportedOrigin failed: %v", err)
	}
	if err := SetImportedOrigin(db, models.ImportedSkillOrigin{SkillName: "re-pointed", Owner: "acme", Repo: "skills", Ref: "v2"}); err != nil {
		t.Fatalf("second SetImportedOrigin failed: %v", err)
	}

	got, err := GetImportedOrigin(db, "re-pointed")
	if err != nil {
		t.Fatalf("GetImportedOrigin failed: %v", err)
	}
	if got.Ref != "v2" {
		t.Errorf("expected upsert to correct ref to v2, got %q", got.Ref)
	}
}

func TestGetImportedOrigin_ReturnsErrNotFoundForLocalSkill(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "homegrown", SourceOrigin: models.SourceOriginCreated}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	_, err := GetImportedOrigin(db, "homegrown")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a locally created skill, got %v", err)
	}
}
