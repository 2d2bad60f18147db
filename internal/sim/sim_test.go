package sim

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"fairsched/internal/sched"
)

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestCascade(t *testing.T, freePages uint64) (*sched.Cascade, sched.Config) {
	t.Helper()
	cfg := sched.DefaultConfig()
	casc := sched.NewCascade(cfg, func() uint64 { return freePages }, sched.WithLogger(quietEntry()))
	require.NoError(t, casc.Init())
	t.Cleanup(casc.Shutdown)
	return casc, cfg
}

func TestRunnerRetiresBudgetedTasks(t *testing.T) {
	casc, cfg := newTestCascade(t, 200)
	wl := Workload{
		{Pid: 1, Nice: 0, Priority: 128, BudgetTicks: 50},
		{Pid: 2, Nice: 0, Priority: 128, BudgetTicks: 50},
	}

	r := NewRunner(casc, cfg, WithRunnerLogger(quietEntry()))
	rep, err := r.Run(context.Background(), wl, 1000)
	require.NoError(t, err)

	require.EqualValues(t, 1000, rep.Ticks)
	require.Equal(t, sched.TierCFS, rep.Tier)
	require.Len(t, rep.Results, 2)
	for _, res := range rep.Results {
		require.True(t, res.Finished, "pid %d never finished", res.Pid)
		require.GreaterOrEqual(t, res.RuntimeNS, 50*cfg.TickDelta())
	}
	// Results come back sorted by pid.
	require.EqualValues(t, 1, rep.Results[0].Pid)
	require.EqualValues(t, 2, rep.Results[1].Pid)

	out := rep.String()
	require.Contains(t, out, "tier cfs")
	require.Contains(t, out, "CFS SCHEDULER STATE")
}

func TestRunnerOnFallbackTier(t *testing.T) {
	casc, cfg := newTestCascade(t, 30) // round-robin territory
	wl := Workload{
		{Pid: 1, Priority: 100, BudgetTicks: 20},
		{Pid: 2, Priority: 100, BudgetTicks: 20},
	}

	r := NewRunner(casc, cfg, WithRunnerLogger(quietEntry()))
	rep, err := r.Run(context.Background(), wl, 500)
	require.NoError(t, err)

	require.Equal(t, sched.TierRoundRobin, rep.Tier)
	for _, res := range rep.Results {
		require.True(t, res.Finished)
	}
}

func TestRunnerContextCancel(t *testing.T) {
	casc, cfg := newTestCascade(t, 200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(casc, cfg, WithRunnerLogger(quietEntry()))
	_, err := r.Run(ctx, Workload{{Pid: 1}}, 100)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunnerTraceOutput(t *testing.T) {
	casc, cfg := newTestCascade(t, 200)

	path := t.TempDir() + "/trace.csv"
	tracer, err := NewTracer(path)
	require.NoError(t, err)

	r := NewRunner(casc, cfg, WithRunnerLogger(quietEntry()), WithTracer(tracer))
	_, err = r.Run(context.Background(), Workload{{Pid: 1, BudgetTicks: 10}}, 100)
	require.NoError(t, err)
	require.NoError(t, tracer.Close())

	data, err := readTrace(path)
	require.NoError(t, err)
	require.Contains(t, data, "admit")
	require.Contains(t, data, "dispatch")
	require.Contains(t, data, "finish")
}
