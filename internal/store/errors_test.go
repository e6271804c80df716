package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockConflictError(t *testing.T) {
	e := &LockConflictError{SkillName: "alpha", HolderInstance: "inst-a", HolderPID: 4242}

	assert.ErrorIs(t, e, ErrLockConflict)
	assert.Equal(t, "LOCK_CONFLICT", e.ErrorCode())
	ctx := e.Context()
	require.Contains(t, ctx, "skill_name")
	require.Contains(t, ctx, "holder_instance")
	require.Contains(t, ctx, "holder_pid")
	assert.Equal(t, "alpha", ctx["skill_name"])
	assert.Equal(t, "inst-a", ctx["holder_instance"])
	assert.Equal(t, "4242", ctx["holder_pid"])
	assert.NotEmpty(t, e.SuggestedAction())
}

func TestLockConflictError_WrappedIs(t *testing.T) {
	wrapped := fmt.Errorf("acquire lock: %w", &LockConflictError{SkillName: "beta", HolderInstance: "inst-b", HolderPID: 7})
	assert.ErrorIs(t, wrapped, ErrLockConflict)
}

func TestVersionConflictError(t *testing.T) {
	e := &VersionConflictError{Entity: "workflow_step", ID: "alpha:4"}

	assert.ErrorIs(t, e, ErrVersionConflict)
	assert.Equal(t, "VERSION_CONFLICT", e.ErrorCode())
	ctx := e.Context()
	assert.Equal(t, "workflow_step", ctx["entity"])
	assert.Equal(t, "alpha:4", ctx["id"])
	assert.NotEmpty(t, e.SuggestedAction())
}

func TestLockConflictError_DoesNotMatchVersionConflict(t *testing.T) {
	lockErr := &LockConflictError{SkillName: "gamma"}
	assert.False(t, errors.Is(lockErr, ErrVersionConflict))
}
