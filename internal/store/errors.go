package store

import (
	"errors"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// RecoverableError is an alias for models.RecoverableError, retained for
// backward compatibility with callers that reference store.RecoverableError.
type RecoverableError = models.RecoverableError

// ErrLockConflict is the sentinel another instance's lock attempt matches via
// errors.Is.
var ErrLockConflict = errors.New("skill is locked by another instance")

// LockConflictError is error kind 2 (§7): another instance holds the skill's
// lock. Carries the holder's identity so the UI can show "open elsewhere".
type LockConflictError struct {
	SkillName      string
	HolderInstance string
	HolderPID      int
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("skill %q is locked by instance %s (pid %d)", e.SkillName, e.HolderInstance, e.HolderPID)
}
func (e *LockConflictError) ErrorCode() string { return "LOCK_CONFLICT" }
func (e *LockConflictError) Context() map[string]string {
	return map[string]string{
		"skill_name":      e.SkillName,
		"holder_instance": e.HolderInstance,
		"holder_pid":      fmt.Sprintf("%d", e.HolderPID),
	}
}
func (e *LockConflictError) SuggestedAction() string {
	return "wait for the other instance to release the lock, or confirm it has exited"
}
func (e *LockConflictError) Is(target error) bool { return target == ErrLockConflict }

// ErrVersionConflict is returned when optimistic concurrency fails on a
// workflow-step or workflow-run update.
var ErrVersionConflict = errors.New("version conflict: record was modified by another process")

// VersionConflictError carries structured context for an optimistic
// concurrency failure.
type VersionConflictError struct {
	Entity string
	ID     string
}

func (e *VersionConflictError) Error() string {
	return "version conflict: record was modified by another process"
}
func (e *VersionConflictError) ErrorCode() string { return "VERSION_CONFLICT" }
func (e *VersionConflictError) Context() map[string]string {
	return map[string]string{"entity": e.Entity, "id": e.ID}
}
func (e *VersionConflictError) SuggestedAction() string {
	return "reload the record and retry"
}
func (e *VersionConflictError) Is(target error) bool { return target == ErrVersionConflict }

// ErrNotFound is returned by lookups with no matching row.
var ErrNotFound = errors.New("not found")
