package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/procutil"
)

// BeginSession creates a session row tagged with the caller's PID, returning
// its opaque id. Exactly one session row is expected per actively running
// workflow inside any live instance, but creation itself does not enforce
// that; callers serialise through the skill's lock.
func BeginSession(db *sql.DB, skillName string, pid int) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO workflow_sessions (id, skill_name, pid, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, id, skillName, pid)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// EndSession removes the session row by id.
func EndSession(db *sql.DB, id string) error {
	_, err := db.ExecContext(context.Background(), `DELETE FROM workflow_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// ListSessions returns every live session row, ordered by skill name.
func ListSessions(q Querier) ([]models.Session, error) {
	rows, err := q.Query(`SELECT id, skill_name, pid, created_at FROM workflow_sessions ORDER BY skill_name`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.SkillName, &s.PID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReconcileOrphanedSessions removes every session whose PID is not alive,
// returning the count removed (§4.1, §4.6).
func ReconcileOrphanedSessions(db *sql.DB) (int, error) {
	sessions, err := ListSessions(db)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range sessions {
		if procutil.IsAlive(s.PID) {
			continue
		}
		if _, err := db.ExecContext(context.Background(),
			`DELETE FROM workflow_sessions WHERE id = ?`, s.ID); err != nil {
			return removed, fmt.Errorf("reconcile orphaned session %q: %w", s.ID, err)
		}
		removed++
	}
	return removed, nil
}
