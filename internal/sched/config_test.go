package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require.Equal(t, DefaultConfig(), Load(""))
	require.Equal(t, DefaultConfig(), Load(filepath.Join(t.TempDir(), "missing.yml")))
}

func TestLoadOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `tick_ms: 5
targeted_latency_ms: 40
min_granularity_ms: 80
arena_capacity: 16
init_retries: -3
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg := Load(path)
	require.Equal(t, 5, cfg.TickMS)
	require.Equal(t, 40, cfg.TargetedLatencyMS)
	require.Equal(t, 40, cfg.MinGranularityMS, "granularity clamps down to the latency window")
	require.Equal(t, 16, cfg.ArenaCapacity)
	require.Equal(t, 3, cfg.InitRetries, "negative retry count resets to default")
	require.Equal(t, 10, cfg.RRQuantumTicks, "untouched fields keep defaults")

	require.EqualValues(t, 5_000_000, cfg.TickDelta())
	require.EqualValues(t, 40_000_000, cfg.TargetedLatency())
	require.Equal(t, 5*time.Millisecond, cfg.TickInterval())
}

func TestConfigClampedFillsZeros(t *testing.T) {
	cfg := Config{}.clamped()
	d := DefaultConfig()

	require.Equal(t, d.TickMS, cfg.TickMS)
	require.Equal(t, d.TargetedLatencyMS, cfg.TargetedLatencyMS)
	require.Equal(t, d.MinGranularityMS, cfg.MinGranularityMS)
	require.Equal(t, d.ArenaCapacity, cfg.ArenaCapacity)
	require.Equal(t, d.RRQuantumTicks, cfg.RRQuantumTicks)
	require.Equal(t, d.PrioQuantumTicks, cfg.PrioQuantumTicks)
	require.Equal(t, d.AgingIntervalTicks, cfg.AgingIntervalTicks)
	require.Equal(t, d.MaxFallbacks, cfg.MaxFallbacks)
	require.Equal(t, d.MaxCascadePasses, cfg.MaxCascadePasses)

	// Zero retries and zero delay are legal operating points.
	require.Zero(t, cfg.InitRetries)
	require.Zero(t, cfg.InitRetryDelayMS)
}
