// Package coordinator gives every other package a single per-process
// identity to acquire locks and open sessions under, instead of each
// caller threading its own (instance_id, pid) pair through to
// internal/store directly (§4.6).
package coordinator

import (
	"database/sql"
	"os"

	"github.com/google/uuid"

	"github.com/skillsmith/skillsmith/internal/store"
)

// Instance is the identity a running process claims leases under: a
// per-boot identifier plus the OS PID recorded next to it, so a dead
// instance's leases can be told apart from a live one's (§4.6, "Per-
// instance identity is generated at boot").
type Instance struct {
	ID  string
	PID int
}

// NewInstance builds an Instance for the current process. overrideID lets
// a caller pin a stable identity (tests, or a configured value) instead of
// a fresh one each boot; empty generates a new random id.
func NewInstance(overrideID string) Instance {
	id := overrideID
	if id == "" {
		id = uuid.NewString()
	}
	return Instance{ID: id, PID: os.Getpid()}
}

// Coordinator wraps internal/store's lock and session primitives with this
// process's Instance, so every call site needs only a skill name.
type Coordinator struct {
	DB       *sql.DB
	Instance Instance
}

// New binds db to instance.
func New(db *sql.DB, instance Instance) *Coordinator {
	return &Coordinator{DB: db, Instance: instance}
}

// AcquireLock claims skillName's exclusive lease for this instance, or
// returns *store.LockConflictError naming the current holder.
func (c *Coordinator) AcquireLock(skillName string) error {
	return store.AcquireLock(c.DB, skillName, c.Instance.ID, c.Instance.PID)
}

// ReleaseLock drops skillName's lease if this instance holds it.
func (c *Coordinator) ReleaseLock(skillName string) error {
	return store.ReleaseLock(c.DB, skillName, c.Instance.ID)
}

// ReleaseAllLocks drops every lease this instance holds, run on clean
// shutdown so a crashed process is the only source of leases later
// reclaimed by PID-liveness (§4.6).
func (c *Coordinator) ReleaseAllLocks() error {
	return store.ReleaseAllLocksForInstance(c.DB, c.Instance.ID)
}

// BeginSession opens a session row proving this instance owns skillName's
// in-progress workflow, returning its opaque id.
func (c *Coordinator) BeginSession(skillName string) (string, error) {
	return store.BeginSession(c.DB, skillName, c.Instance.PID)
}

// EndSession closes a session opened by BeginSession.
func (c *Coordinator) EndSession(sessionID string) error {
	return store.EndSession(c.DB, sessionID)
}

// WithSession opens a session for skillName, runs fn, and always closes the
// session afterward regardless of fn's outcome — the session exists only to
// tell the Reconciler "do not touch this skill", not to record success.
func (c *Coordinator) WithSession(skillName string, fn func() error) error {
	sessionID, err := c.BeginSession(skillName)
	if err != nil {
		return err
	}
	defer func() { _ = c.EndSession(sessionID) }()
	return fn()
}

// WithLock acquires skillName's exclusive lease, runs fn, and always
// releases the lease afterward. Returns *store.LockConflictError without
// running fn if another live instance already holds it.
func (c *Coordinator) WithLock(skillName string, fn func() error) error {
	if err := c.AcquireLock(skillName); err != nil {
		return err
	}
	defer func() { _ = c.ReleaseLock(skillName) }()
	return fn()
}
