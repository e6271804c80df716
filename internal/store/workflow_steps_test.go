package store

import (
	"database/sql"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestUpsertWorkflowStepStatus_StampsTimestamps(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "stepper"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	err := Transact(db, func(tx *sql.Tx) error {
		return UpsertWorkflowStepStatus(tx, "stepper", 2, models.StepStatusInProgress)
	})
	if err != nil {
		t.Fatalf("UpsertWorkflowStepStatus(in_progress) failed: %v", err)
	}

	steps, err := ListWorkflowSteps(db, "stepper")
	if err != nil {
		t.Fatalf("ListWorkflowSteps failed: %v", err)
	}
	if steps[2].Status != models.StepStatusInProgress || steps[2].StartedAt == nil {
		t.Errorf("expected step 2 in_progress with started_at set, got %+v", steps[2])
	}

	err = Transact(db, func(tx *sql.Tx) error {
		return UpsertWorkflowStepStatus(tx, "stepper", 2, models.StepStatusCompleted)
	})
	if err != nil {
		t.Fatalf("UpsertWorkflowStepStatus(completed) failed: %v", err)
	}

	steps, err = ListWorkflowSteps(db, "stepper")
	if err != nil {
		t.Fatalf("ListWorkflowSteps failed: %v", err)
	}
	if steps[2].Status != models.StepStatusCompleted || steps[2].CompletedAt == nil {
		t.Errorf("expected step 2 completed with completed_at set, got %+v", steps[2])
	}

	err = Transact(db, func(tx *sql.Tx) error {
		return UpsertWorkflowStepStatus(tx, "stepper", 2, models.StepStatusPending)
	})
	if err != nil {
		t.Fatalf("UpsertWorkflowStepStatus(pending) failed: %v", err)
	}

	steps, err = ListWorkflowSteps(db, "stepper")
	if err != nil {
		t.Fatalf("ListWorkflowSteps failed: %v", err)
	}
	if steps[2].StartedAt != nil || steps[2].CompletedAt != nil {
		t.Errorf("expected pending to clear both timestamps, got %+v", steps[2])
	}
}

func TestResetWorkflowSteps_ClearsFromIndex(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "rewinder"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	for step := 0; step <= 5; step++ {
		err := Transact(db, func(tx *sql.Tx) error {
			return UpsertWorkflowStepStatus(tx, "rewinder", step, models.StepStatusCompleted)
		})
		if err != nil {
			t.Fatalf("UpsertWorkflowStepStatus(%d) failed: %v", step, err)
		}
	}

	err := Transact(db, func(tx *sql.Tx) error {
		return ResetWorkflowSteps(tx, "rewinder", 3)
	})
	if err != nil {
		t.Fatalf("ResetWorkflowSteps failed: %v", err)
	}

	steps, err := ListWorkflowSteps(db, "rewinder")
	if err != nil {
		t.Fatalf("ListWorkflowSteps failed: %v", err)
	}
	for _, s := range steps {
		if s.StepIndex < 3 && s.Status != models.StepStatusCompleted {
			t.Errorf("step %d before reset point should stay completed, got %s", s.StepIndex, s.Status)
		}
		if s.StepIndex >= 3 && s.Status != models.StepStatusPending {
			t.Errorf("step %d at/after reset point should be pending, got %s", s.StepIndex, s.Status)
		}
	}
}
