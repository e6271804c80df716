package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSkillCmd_HasExpectedSubcommands(t *testing.T) {
	cmd := NewSkillCmd()
	require.Equal(t, "skill", cmd.Use)

	for _, name := range []string{"create", "list", "get", "delete", "tag"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		require.NotNil(t, sub)
		require.Equal(t, name, sub.Name())
	}
}

func TestSkillCreateCmd_RequiresName(t *testing.T) {
	cmd := newSkillCreateCmd()
	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
}
