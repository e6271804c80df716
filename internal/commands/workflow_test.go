package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWorkflowCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewWorkflowCmd()
	require.Equal(t, "workflow", cmd.Use)

	for _, name := range []string{"run", "rerun", "resume", "reset", "status", "cancel"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func TestWorkflowRunCmd_RejectsStepOutOfRange(t *testing.T) {
	cmd := newWorkflowRunCmd()
	require.NoError(t, cmd.Flags().Set("step", "9"))
	err := cmd.RunE(cmd, []string{"some-skill"})
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestWorkflowRunCmd_RejectsMissingStep(t *testing.T) {
	cmd := newWorkflowRunCmd()
	err := cmd.RunE(cmd, []string{"some-skill"})
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}

func TestWorkflowResetCmd_RequiresFromStep(t *testing.T) {
	cmd := newWorkflowResetCmd()
	err := cmd.RunE(cmd, []string{"some-skill"})
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}
