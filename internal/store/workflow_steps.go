package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// UpsertWorkflowStepStatus transitions a step's status, stamping started_at
// on in_progress and completed_at on completed; pending clears both (§4.1).
func UpsertWorkflowStepStatus(tx *sql.Tx, skillName string, step int, status models.StepStatus) error {
	var query string
	switch status {
	case models.StepStatusInProgress:
		query = `UPDATE workflow_steps SET status = ?, started_at = CURRENT_TIMESTAMP WHERE skill_name = ? AND step_index = ?`
	case models.StepStatusCompleted:
		query = `UPDATE workflow_steps SET status = ?, completed_at = CURRENT_TIMESTAMP WHERE skill_name = ? AND step_index = ?`
	case models.StepStatusPending:
		query = `UPDATE workflow_steps SET status = ?, started_at = NULL, completed_at = NULL WHERE skill_name = ? AND step_index = ?`
	default:
		return &models.PreconditionError{Subject: "step_status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	if _, err := tx.ExecContext(context.Background(), query, string(status), skillName, step); err != nil {
		return fmt.Errorf("update workflow step status: %w", err)
	}
	return nil
}

// ListWorkflowSteps returns every step row for a skill, ordered by index.
func ListWorkflowSteps(q Querier, skillName string) ([]models.WorkflowStep, error) {
	rows, err := q.Query(`
		SELECT skill_name, step_index, status, started_at, completed_at
		FROM workflow_steps WHERE skill_name = ? ORDER BY step_index
	`, skillName)
	if err != nil {
		return nil, fmt.Errorf("list workflow steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.WorkflowStep
	for rows.Next() {
		var s models.WorkflowStep
		var status string
		if err := rows.Scan(&s.SkillName, &s.StepIndex, &status, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan workflow step: %w", err)
		}
		s.Status = models.StepStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ResetWorkflowSteps resets step rows for index >= fromStep back to pending,
// clearing timestamps. Used by reset-from(N) (§4.5) and by the reconciler.
func ResetWorkflowSteps(tx *sql.Tx, skillName string, fromStep int) error {
	_, err := tx.ExecContext(context.Background(), `
		UPDATE workflow_steps SET status = 'pending', started_at = NULL, completed_at = NULL
		WHERE skill_name = ? AND step_index >= ?
	`, skillName, fromStep)
	if err != nil {
		return fmt.Errorf("reset workflow steps: %w", err)
	}
	return nil
}

// MarkWorkflowStepsCompletedBelow marks every step strictly below upTo as
// completed, used by the reconciler's disk-only case (§4.3 Case 1) where
// a conservative row is inserted for files already present on disk.
func MarkWorkflowStepsCompletedBelow(tx *sql.Tx, skillName string, upTo int) error {
	_, err := tx.ExecContext(context.Background(), `
		UPDATE workflow_steps SET status = 'completed', completed_at = CURRENT_TIMESTAMP
		WHERE skill_name = ? AND step_index < ?
	`, skillName, upTo)
	if err != nil {
		return fmt.Errorf("mark workflow steps completed: %w", err)
	}
	return nil
}
