package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// GetWorkflowRun returns the one-row-per-skill summary, or ErrNotFound.
func GetWorkflowRun(q Querier, skillName string) (models.WorkflowRun, error) {
	var r models.WorkflowRun
	var status, skillType string
	err := q.QueryRow(`
		SELECT skill_name, current_step, status, domain, skill_type, author_login, created_at, updated_at
		FROM workflow_runs WHERE skill_name = ?
	`, skillName).Scan(&r.SkillName, &r.CurrentStep, &status, &r.Domain, &skillType, &r.AuthorLogin, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.WorkflowRun{}, ErrNotFound
	}
	if err != nil {
		return models.WorkflowRun{}, fmt.Errorf("get workflow run: %w", err)
	}
	r.Status = models.RunStatus(status)
	r.SkillType = models.SkillType(skillType)
	return r, nil
}

// AdvanceWorkflowRun sets current_step and status atomically.
func AdvanceWorkflowRun(tx *sql.Tx, skillName string, currentStep int, status models.RunStatus) error {
	_, err := tx.ExecContext(context.Background(), `
		UPDATE workflow_runs SET current_step = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE skill_name = ?
	`, currentStep, string(status), skillName)
	if err != nil {
		return fmt.Errorf("advance workflow run: %w", err)
	}
	return nil
}

// ResetWorkflowRun sets current_step back to step and status to pending, used
// by reset-from and by the reconciler's disk-behind-catalogue case (§4.3).
func ResetWorkflowRun(tx *sql.Tx, skillName string, step int) error {
	_, err := tx.ExecContext(context.Background(), `
		UPDATE workflow_runs SET current_step = ?, status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE skill_name = ?
	`, step, skillName)
	if err != nil {
		return fmt.Errorf("reset workflow run: %w", err)
	}
	return nil
}
