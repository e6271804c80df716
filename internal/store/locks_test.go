package store

import (
	"os"
	"testing"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestAcquireLock_GrantsWhenUnheld(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "locked"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	if err := AcquireLock(db, "locked", "instance-a", os.Getpid()); err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	lock, err := GetLock(db, "locked")
	if err != nil {
		t.Fatalf("GetLock failed: %v", err)
	}
	if lock.InstanceID != "instance-a" {
		t.Errorf("expected instance-a to hold the lock, got %s", lock.InstanceID)
	}
}

func TestAcquireLock_ConflictsWhenHolderAlive(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "contested"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	if err := AcquireLock(db, "contested", "instance-a", os.Getpid()); err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}

	err := AcquireLock(db, "contested", "instance-b", os.Getpid())
	if err == nil {
		t.Fatal("expected lock conflict for second acquirer")
	}
	var conflict *LockConflictError
	if !asLockConflict(err, &conflict) {
		t.Fatalf("expected *LockConflictError, got %T: %v", err, err)
	}
	if conflict.HolderInstance != "instance-a" {
		t.Errorf("expected conflict to name instance-a, got %s", conflict.HolderInstance)
	}
}

func TestAcquireLock_ReclaimsWhenHolderDead(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "abandoned"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	const deadPID = 999999
	if err := AcquireLock(db, "abandoned", "instance-a", deadPID); err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}

	if err := AcquireLock(db, "abandoned", "instance-b", os.Getpid()); err != nil {
		t.Fatalf("expected reclaim to succeed, got: %v", err)
	}

	lock, err := GetLock(db, "abandoned")
	if err != nil {
		t.Fatalf("GetLock failed: %v", err)
	}
	if lock.InstanceID != "instance-b" {
		t.Errorf("expected instance-b to hold the reclaimed lock, got %s", lock.InstanceID)
	}
}

func TestReleaseLock_OnlyReleasesOwnHold(t *testing.T) {
	db := newTestDB(t)
	if err := CreateSkill(db, models.Skill{Name: "released"}); err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	if err := AcquireLock(db, "released", "instance-a", os.Getpid()); err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	if err := ReleaseLock(db, "released", "instance-b"); err != nil {
		t.Fatalf("ReleaseLock (wrong instance) failed: %v", err)
	}
	if _, err := GetLock(db, "released"); err != nil {
		t.Fatalf("expected lock to remain held by instance-a, got %v", err)
	}

	if err := ReleaseLock(db, "released", "instance-a"); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if _, err := GetLock(db, "released"); err == nil {
		t.Error("expected lock to be gone after release")
	}
}

func TestReclaimDeadLocks_RemovesOnlyDead(t *testing.T) {
	db := newTestDB(t)
	for _, name := range []string{"alive-holder", "dead-holder"} {
		if err := CreateSkill(db, models.Skill{Name: name}); err != nil {
			t.Fatalf("CreateSkill(%s) failed: %v", name, err)
		}
	}
	_ = AcquireLock(db, "alive-holder", "instance-a", os.Getpid())
	_ = AcquireLock(db, "dead-holder", "instance-b", 999999)

	reclaimed, err := ReclaimDeadLocks(db)
	if err != nil {
		t.Fatalf("ReclaimDeadLocks failed: %v", err)
	}
	if reclaimed != 1 {
		t.Errorf("expected 1 reclaimed, got %d", reclaimed)
	}
	if _, err := GetLock(db, "alive-holder"); err != nil {
		t.Errorf("expected alive-holder's lock to remain, got %v", err)
	}
	if _, err := GetLock(db, "dead-holder"); err == nil {
		t.Error("expected dead-holder's lock to be reclaimed")
	}
}

// asLockConflict is a single concrete type assertion; it does not unwrap,
// which suffices because AcquireLock returns the *LockConflictError as is.
func asLockConflict(err error, target **LockConflictError) bool {
	c, ok := err.(*LockConflictError)
	if ok {
		*target = c
	}
	return ok
}
