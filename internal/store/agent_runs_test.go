package store

import (
	"testing"
	"time"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestInsertAgentRun_RecordsCompletedInvocation(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "tracked"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	started := time.Now().Add(-time.Minute)
	completed := time.Now()
	success := true
	run := models.AgentRunRecord{
		AgentID:     "agent-1",
		SkillName:   "tracked",
		StepIndex:   4,
		Model:       "claude-opus",
		Success:     &success,
		StartedAt:   started,
		CompletedAt: &completed,
	}
	if err := InsertAgentRun(db, run); err != nil {
		t.Fatalf("InsertAgentRun failed: %v", err)
	}

	runs, err := ListAgentRuns(db, "tracked")
	if err != nil {
		t.Fatalf("ListAgentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.AgentID != "agent-1" || got.StepIndex != 4 || got.Model != "claude-opus" {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Success == nil || !*got.Success {
		t.Errorf("expected success=true, got %+v", got.Success)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestInsertAgentRun_CancelledRunHasNilSuccess(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "cancelled"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	run := models.AgentRunRecord{
		AgentID:   "agent-2",
		SkillName: "cancelled",
		StepIndex: 0,
		Model:     "claude-sonnet",
		StartedAt: time.Now(),
	}
	if err := InsertAgentRun(db, run); err != nil {
		t.Fatalf("InsertAgentRun failed: %v", err)
	}

	runs, err := ListAgentRuns(db, "cancelled")
	if err != nil {
		t.Fatalf("ListAgentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Success != nil {
		t.Errorf("expected nil success for a cancelled run, got %+v", *runs[0].Success)
	}
	if runs[0].CompletedAt != nil {
		t.Errorf("expected nil completed_at, got %+v", *runs[0].CompletedAt)
	}
}
