package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWorkload(t *testing.T) {
	wl, err := ParseWorkload([]string{"1:0", "2:-5:500"})
	require.NoError(t, err)
	require.Len(t, wl, 2)

	require.EqualValues(t, 1, wl[0].Pid)
	require.Equal(t, 0, wl[0].Nice)
	require.Zero(t, wl[0].BudgetTicks)

	require.EqualValues(t, 2, wl[1].Pid)
	require.Equal(t, -5, wl[1].Nice)
	require.EqualValues(t, 500, wl[1].BudgetTicks)
	require.Greater(t, wl[1].Priority, wl[0].Priority, "lower nice maps to higher priority")
}

func TestParseWorkloadErrors(t *testing.T) {
	for _, spec := range []string{"1", "1:0:5:9", "x:0", "1:y", "1:0:z"} {
		_, err := ParseWorkload([]string{spec})
		require.Error(t, err, "spec %q should be rejected", spec)
	}
}

func TestDefaultWorkload(t *testing.T) {
	wl := DefaultWorkload(3)
	require.Len(t, wl, 3)
	seen := map[uint32]bool{}
	for _, spec := range wl {
		require.False(t, seen[spec.Pid], "duplicate pid %d", spec.Pid)
		seen[spec.Pid] = true
		require.GreaterOrEqual(t, spec.Nice, -20)
		require.LessOrEqual(t, spec.Nice, 19)
	}

	require.Len(t, DefaultWorkload(0), 1, "workload is never empty")
}
