package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTaskClampsNice(t *testing.T) {
	require.EqualValues(t, NiceMin, NewTask(1, -100, 0).Nice)
	require.EqualValues(t, NiceMax, NewTask(2, 100, 0).Nice)
	require.EqualValues(t, 5, NewTask(3, 5, 0).Nice)

	tk := NewTask(4, 0, 42)
	require.Equal(t, StateReady, tk.State)
	require.EqualValues(t, 42, tk.Priority)
	require.False(t, tk.Queued())
	require.Zero(t, tk.Vruntime)
}

func TestTaskStateString(t *testing.T) {
	require.Equal(t, "ready", StateReady.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "blocked", StateBlocked.String())
	require.Equal(t, "terminated", StateTerminated.String())
}
