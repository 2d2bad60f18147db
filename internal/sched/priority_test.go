package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPriority(t *testing.T, cfg Config) *Priority {
	t.Helper()
	p := NewPriority(cfg, quietLogger())
	require.NoError(t, p.Init())
	require.NoError(t, p.ValidateInit())
	return p
}

func TestPriorityOrdering(t *testing.T) {
	p := newTestPriority(t, DefaultConfig())

	require.NoError(t, p.AddTask(NewTask(1, 0, 10)))
	require.NoError(t, p.AddTask(NewTask(3, 0, 200)))
	require.NoError(t, p.AddTask(NewTask(2, 0, 50)))

	require.EqualValues(t, 3, p.PickNextTask().Pid)
	require.EqualValues(t, 2, p.PickNextTask().Pid)
	require.EqualValues(t, 1, p.PickNextTask().Pid)
	require.Nil(t, p.PickNextTask())
}

func TestPriorityFIFOWithinLevel(t *testing.T) {
	p := newTestPriority(t, DefaultConfig())

	// Ties break on the enqueue tick, so separate the arrivals.
	for _, pid := range []uint32{1, 2, 3} {
		require.NoError(t, p.AddTask(NewTask(pid, 0, 100)))
		p.TaskTick()
	}

	require.EqualValues(t, 1, p.PickNextTask().Pid)
	require.EqualValues(t, 2, p.PickNextTask().Pid)
	require.EqualValues(t, 3, p.PickNextTask().Pid)
}

func TestPriorityQuantumPreemption(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPriority(t, cfg)

	a := NewTask(1, 0, 200)
	b := NewTask(2, 0, 100)
	require.NoError(t, p.AddTask(a))
	require.NoError(t, p.AddTask(b))
	require.Same(t, a, p.PickNextTask())

	for i := 0; i < cfg.PrioQuantumTicks-1; i++ {
		p.TaskTick()
	}
	require.Same(t, a, p.Current())

	p.TaskTick()
	require.Nil(t, p.Current())
	require.Equal(t, StateReady, a.State)
	require.EqualValues(t, 1, a.ContextSwitches)
	require.Equal(t, uint64(cfg.PrioQuantumTicks)*cfg.TickDelta(), a.TotalRuntime)
	require.Equal(t, 2, p.QueuedTasks())

	// Strict priority: the requeued high-priority task wins again.
	require.Same(t, a, p.PickNextTask())
}

func TestPriorityAging(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPriority(t, cfg)

	waiter := NewTask(1, 0, 5)
	require.NoError(t, p.AddTask(waiter))

	for i := 0; i < 2*cfg.AgingIntervalTicks; i++ {
		p.TaskTick()
	}
	require.EqualValues(t, 2, waiter.agingBoost, "one boost per full interval waited")

	// The boost now outranks a fresh task of nominally higher priority.
	fresh := NewTask(2, 0, 6)
	require.NoError(t, p.AddTask(fresh))
	require.Same(t, waiter, p.PickNextTask())
}

func TestPriorityAgingCapped(t *testing.T) {
	cfg := DefaultConfig()
	p := newTestPriority(t, cfg)

	top := NewTask(1, 0, 255)
	require.NoError(t, p.AddTask(top))
	for i := 0; i < 3*cfg.AgingIntervalTicks; i++ {
		p.TaskTick()
	}
	require.Zero(t, top.agingBoost, "boost must not push past the top level")
	require.Equal(t, 255, effectivePriority(top))
}

func TestPriorityRemoveTask(t *testing.T) {
	p := newTestPriority(t, DefaultConfig())

	a := NewTask(1, 0, 100)
	b := NewTask(2, 0, 90)
	c := NewTask(3, 0, 80)
	for _, tk := range []*Task{a, b, c} {
		require.NoError(t, p.AddTask(tk))
	}

	p.RemoveTask(b)
	require.Equal(t, StateTerminated, b.State)
	require.Equal(t, 2, p.QueuedTasks())
	require.Same(t, a, p.PickNextTask())
	require.Same(t, c, p.PickNextTask())

	p.RemoveTask(c) // c is current
	require.Nil(t, p.Current())

	require.ErrorIs(t, p.AddTask(b), ErrTaskTerminated)
	require.ErrorIs(t, p.AddTask(nil), ErrNilTask)
}

func TestPriorityValidateBeforeInit(t *testing.T) {
	p := NewPriority(DefaultConfig(), quietLogger())
	require.Error(t, p.ValidateInit())
	require.Zero(t, p.QueuedTasks())
}
