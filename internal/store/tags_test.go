package store

import (
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestSetTags_NormalizesAndDedupes(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "tagged"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	if err := SetTags(db, "tagged", []string{" Support ", "support", "Billing", ""}); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}

	tags, err := ListTags(db, "tagged")
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	want := []string{"billing", "support"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i, w := range want {
		if tags[i] != w {
			t.Errorf("position %d: want %s, got %s", i, w, tags[i])
		}
	}
}

func TestSetTags_ReplacesPriorSet(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "replaced"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	_ = SetTags(db, "replaced", []string{"old"})
	if err := SetTags(db, "replaced", []string{"new"}); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}

	tags, err := ListTags(db, "replaced")
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 1 || tags[0] != "new" {
		t.Errorf("expected only [new], got %v", tags)
	}
}

func TestFindSkillsByTag(t *testing.T) {
	db := newTestDB(t)
	for _, name := range []string{"one", "two"} {
		if err := CreateSkill(db, models.Skill{Name: name}); err != nil {
			t.Fatalf("CreateSkill(%s) failed: %v", name, err)
		}
	}
	_ = SetTags(db, "one", []string{"shared"})
	_ = SetTags(db, "two", []string{"SHARED"})

	names, err := FindSkillsByTag(db, "Shared")
	if err != nil {
		t.Fatalf("FindSkillsByTag failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected both skills tagged, got %v", names)
	}
}
