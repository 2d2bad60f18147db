package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEmergency(t *testing.T) *Emergency {
	t.Helper()
	e := NewEmergency(DefaultConfig(), quietLogger())
	require.NoError(t, e.Init())
	return e
}

func TestEmergencySingleTickRotation(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEmergency(t)

	a := NewTask(1, 0, 0)
	b := NewTask(2, 0, 0)
	require.NoError(t, e.AddTask(a))
	require.NoError(t, e.AddTask(b))

	require.Same(t, a, e.PickNextTask())
	e.TaskTick()
	require.Nil(t, e.Current(), "every task gets exactly one tick")
	require.Equal(t, cfg.TickDelta(), a.TotalRuntime)
	require.EqualValues(t, 1, a.ContextSwitches)

	require.Same(t, b, e.PickNextTask())
	e.TaskTick()
	require.Same(t, a, e.PickNextTask(), "rotation is strict FIFO")
}

func TestEmergencyCapacity(t *testing.T) {
	e := newTestEmergency(t)

	for pid := uint32(1); pid <= emergencyCapacity; pid++ {
		require.NoError(t, e.AddTask(NewTask(pid, 0, 0)))
	}
	require.Equal(t, emergencyCapacity, e.QueuedTasks())
	require.ErrorIs(t, e.AddTask(NewTask(999, 0, 0)), ErrArenaExhausted)
}

func TestEmergencyRemoveTask(t *testing.T) {
	e := newTestEmergency(t)

	a := NewTask(1, 0, 0)
	b := NewTask(2, 0, 0)
	require.NoError(t, e.AddTask(a))
	require.NoError(t, e.AddTask(b))

	e.RemoveTask(a)
	require.Equal(t, StateTerminated, a.State)
	require.Equal(t, 1, e.QueuedTasks())

	require.Same(t, b, e.PickNextTask())
	e.RemoveTask(b)
	require.Nil(t, e.Current())

	require.ErrorIs(t, e.AddTask(a), ErrTaskTerminated)
	require.ErrorIs(t, e.AddTask(nil), ErrNilTask)
}

func TestEmergencyInitInfallible(t *testing.T) {
	e := NewEmergency(DefaultConfig(), quietLogger())
	require.NoError(t, e.Init())
	require.NoError(t, e.AddTask(NewTask(1, 0, 0)))
	require.NoError(t, e.Init(), "re-init must always succeed")
	require.Zero(t, e.QueuedTasks())
	e.Cleanup()
	require.Zero(t, e.QueuedTasks())
}
