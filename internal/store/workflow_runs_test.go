package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestAdvanceWorkflowRun_UpdatesStepAndStatus(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "advancer"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	err := Transact(db, func(tx *sql.Tx) error {
		return AdvanceWorkflowRun(tx, "advancer", 3, models.RunStatusInProgress)
	})
	if err != nil {
		t.Fatalf("AdvanceWorkflowRun failed: %v", err)
	}

	run, err := GetWorkflowRun(db, "advancer")
	if err != nil {
		t.Fatalf("GetWorkflowRun failed: %v", err)
	}
	if run.CurrentStep != 3 || run.Status != models.RunStatusInProgress {
		t.Errorf("unexpected run after advance: %+v", run)
	}
}

func TestResetWorkflowRun_ReturnsToPending(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "resetter"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	_ = Transact(db, func(tx *sql.Tx) error {
		return AdvanceWorkflowRun(tx, "resetter", 5, models.RunStatusCompleted)
	})
	err := Transact(db, func(tx *sql.Tx) error {
		return ResetWorkflowRun(tx, "resetter", 2)
	})
	if err != nil {
		t.Fatalf("ResetWorkflowRun failed: %v", err)
	}

	run, err := GetWorkflowRun(db, "resetter")
	if err != nil {
		t.Fatalf("GetWorkflowRun failed: %v", err)
	}
	if run.CurrentStep != 2 || run.Status != models.RunStatusPending {
		t.Errorf("unexpected run after reset: %+v", run)
	}
}

func TestGetWorkflowRun_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetWorkflowRun(db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
