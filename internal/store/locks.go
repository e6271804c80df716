package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/procutil"
)

// AcquireLock grants skillName's lock to (instanceID, pid) under a
// begin-immediate transaction, so two instances never observe a stale row
// and both claim the lock (§4.1). Policy: if the existing holder's PID is
// alive, fail with *LockConflictError; if dead, reclaim; if none, insert.
func AcquireLock(db *sql.DB, skillName, instanceID string, pid int) error {
	conn, err := db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(context.Background(), "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("acquire lock: begin immediate: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var holderInstance string
	var holderPID int
	err = conn.QueryRowContext(context.Background(),
		`SELECT instance_id, pid FROM skill_locks WHERE skill_name = ?`, skillName,
	).Scan(&holderInstance, &holderPID)

	switch {
	case err == sql.ErrNoRows:
		// no existing holder, fall through to insert
	case err != nil:
		return fmt.Errorf("acquire lock: %w", err)
	case procutil.IsAlive(holderPID):
		return &LockConflictError{SkillName: skillName, HolderInstance: holderInstance, HolderPID: holderPID}
	default:
		if _, err := conn.ExecContext(context.Background(),
			`DELETE FROM skill_locks WHERE skill_name = ?`, skillName); err != nil {
			return fmt.Errorf("acquire lock: reclaim: %w", err)
		}
	}

	if _, err := conn.ExecContext(context.Background(), `
		INSERT INTO skill_locks (skill_name, instance_id, pid, acquired_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, skillName, instanceID, pid); err != nil {
		return fmt.Errorf("acquire lock: insert: %w", err)
	}

	if _, err := conn.ExecContext(context.Background(), "COMMIT"); err != nil {
		return fmt.Errorf("acquire lock: commit: %w", err)
	}
	committed = true
	return nil
}

// ReleaseLock drops skillName's lock row if it is held by instanceID. A
// release by any other instance is a no-op: you can only release what you
// hold.
func ReleaseLock(db *sql.DB, skillName, instanceID string) error {
	_, err := db.ExecContext(context.Background(),
		`DELETE FROM skill_locks WHERE skill_name = ? AND instance_id = ?`, skillName, instanceID)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// ReleaseAllLocksForInstance is the "release all" performed when an
// instance shuts down cleanly, dropping every lock it holds regardless of
// skill.
func ReleaseAllLocksForInstance(db *sql.DB, instanceID string) error {
	_, err := db.ExecContext(context.Background(),
		`DELETE FROM skill_locks WHERE instance_id = ?`, instanceID)
	if err != nil {
		return fmt.Errorf("release all locks: %w", err)
	}
	return nil
}

// GetLock returns the current holder of skillName's lock, or ErrNotFound.
func GetLock(q Querier, skillName string) (models.Lock, error) {
	var l models.Lock
	err := q.QueryRow(`
		SELECT skill_name, instance_id, pid, acquired_at FROM skill_locks WHERE skill_name = ?
	`, skillName).Scan(&l.SkillName, &l.InstanceID, &l.PID, &l.AcquiredAt)
	if err == sql.ErrNoRows {
		return models.Lock{}, ErrNotFound
	}
	if err != nil {
		return models.Lock{}, fmt.Errorf("get lock: %w", err)
	}
	return l, nil
}

// ListLocks returns every held lock, used by the reconciliation pass to find
// locks whose holder PID is no longer alive.
func ListLocks(q Querier) ([]models.Lock, error) {
	rows, err := q.Query(`SELECT skill_name, instance_id, pid, acquired_at FROM skill_locks ORDER BY skill_name`)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Lock
	for rows.Next() {
		var l models.Lock
		if err := rows.Scan(&l.SkillName, &l.InstanceID, &l.PID, &l.AcquiredAt); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ReclaimDeadLocks deletes every lock row whose holder PID is no longer
// alive, returning the count reclaimed. Called by the reconciliation pass
// (§4.6), mirroring the session reaping pass.
func ReclaimDeadLocks(db *sql.DB) (int, error) {
	locks, err := ListLocks(db)
	if err != nil {
		return 0, err
	}
	reclaimed := 0
	for _, l := range locks {
		if procutil.IsAlive(l.PID) {
			continue
		}
		if _, err := db.ExecContext(context.Background(),
			`DELETE FROM skill_locks WHERE skill_name = ?`, l.SkillName); err != nil {
			return reclaimed, fmt.Errorf("reclaim dead lock %q: %w", l.SkillName, err)
		}
		reclaimed++
	}
	return reclaimed, nil
}
