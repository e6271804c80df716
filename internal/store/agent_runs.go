package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// InsertAgentRun records one sidecar invocation's telemetry once it has
// reached a terminal event. Unlike workflow_sessions, a run row is never
// updated after insert: start and completion are both known by the time the
// engine calls this, since the supplemental table exists for after-the-fact
// usage dashboards, not in-flight status.
func InsertAgentRun(db *sql.DB, run models.AgentRunRecord) error {
	var success any
	if run.Success != nil {
		success = *run.Success
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO agent_runs (agent_id, skill_name, step_index, model, success, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.AgentID, run.SkillName, run.StepIndex, run.Model, success, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert agent run: %w", err)
	}
	return nil
}

// ListAgentRuns returns every recorded run for a skill, most recent first —
// the read side of the usage-dashboard pattern this table generalizes.
func ListAgentRuns(q Querier, skillName string) ([]models.AgentRunRecord, error) {
	rows, err := q.Query(`
		SELECT agent_id, skill_name, step_index, model, success, started_at, completed_at
		FROM agent_runs WHERE skill_name = ? ORDER BY started_at DESC
	`, skillName)
	if err != nil {
		return nil, fmt.Errorf("list agent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.AgentRunRecord
	for rows.Next() {
		var r models.AgentRunRecord
		var success sql.NullBool
		var completedAt sql.NullTime
		if err := rows.Scan(&r.AgentID, &r.SkillName, &r.StepIndex, &r.Model, &success, &r.StartedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan agent run: %w", err)
		}
		if success.Valid {
			v := success.Bool
			r.Success = &v
		}
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
