package prompts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystem(t *testing.T) {
	require.Contains(t, System("coder"), "senior software engineer")
	require.Contains(t, System("debugger"), "debugging specialist")
	require.Equal(t, System(DefaultPersona), System("pirate"))
	require.NotEqual(t, System("coder"), System("debugger"))
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{"coder", "debugger", "default"}, Names())
	require.True(t, Known("coder"))
	require.False(t, Known("pirate"))
}
