package sched

import (
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Scheduling constants fixed by the fairness design. Durations are in
// nanoseconds.
const (
	// DefaultTargetedLatency is the window within which every runnable
	// task should get at least one turn.
	DefaultTargetedLatency = 20_000_000 // 20ms

	// DefaultMinGranularity is the hard floor on any time slice,
	// bounding context-switch overhead under high task counts.
	DefaultMinGranularity = 4_000_000 // 4ms
)

// Config mirrors config.yml. Zero values fall back to defaults, and
// Load clamps anything nonsensical.
type Config struct {
	TickMS            int `yaml:"tick_ms"`             // timer interrupt period, default 1 (1 kHz)
	TargetedLatencyMS int `yaml:"targeted_latency_ms"` // default 20
	MinGranularityMS  int `yaml:"min_granularity_ms"`  // default 4
	ArenaCapacity     int `yaml:"arena_capacity"`      // CFS tree node slab size, default 1024

	RRQuantumTicks     int `yaml:"rr_quantum_ticks"`     // round-robin quantum, default 10
	PrioQuantumTicks   int `yaml:"prio_quantum_ticks"`   // priority-tier quantum, default 10
	AgingIntervalTicks int `yaml:"aging_interval_ticks"` // waiting-task boost period, default 100

	InitRetries      int `yaml:"init_retries"`        // per-tier init attempts after the first, default 3
	InitRetryDelayMS int `yaml:"init_retry_delay_ms"` // back-off between attempts, default 10
	MaxFallbacks     int `yaml:"max_fallbacks"`       // tier downgrades before Fatal, default 3
	MaxCascadePasses int `yaml:"max_cascade_passes"`  // top-level detect+bring-up passes, default 2
}

func defaultConfig() Config {
	return Config{
		TickMS:             1,
		TargetedLatencyMS:  20,
		MinGranularityMS:   4,
		ArenaCapacity:      1024,
		RRQuantumTicks:     10,
		PrioQuantumTicks:   10,
		AgingIntervalTicks: 100,
		InitRetries:        3,
		InitRetryDelayMS:   10,
		MaxFallbacks:       3,
		MaxCascadePasses:   2,
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return defaultConfig() }

// Load reads YAML and overrides defaults; an empty path or unreadable
// file yields defaults only.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)
	return cfg.clamped()
}

func (c Config) clamped() Config {
	d := defaultConfig()
	if c.TickMS <= 0 {
		c.TickMS = d.TickMS
	}
	if c.TargetedLatencyMS <= 0 {
		c.TargetedLatencyMS = d.TargetedLatencyMS
	}
	if c.MinGranularityMS <= 0 {
		c.MinGranularityMS = d.MinGranularityMS
	}
	if c.MinGranularityMS > c.TargetedLatencyMS {
		c.MinGranularityMS = c.TargetedLatencyMS
	}
	if c.ArenaCapacity <= 0 {
		c.ArenaCapacity = d.ArenaCapacity
	}
	if c.RRQuantumTicks <= 0 {
		c.RRQuantumTicks = d.RRQuantumTicks
	}
	if c.PrioQuantumTicks <= 0 {
		c.PrioQuantumTicks = d.PrioQuantumTicks
	}
	if c.AgingIntervalTicks <= 0 {
		c.AgingIntervalTicks = d.AgingIntervalTicks
	}
	if c.InitRetries < 0 {
		c.InitRetries = d.InitRetries
	}
	if c.InitRetryDelayMS < 0 {
		c.InitRetryDelayMS = d.InitRetryDelayMS
	}
	if c.MaxFallbacks <= 0 {
		c.MaxFallbacks = d.MaxFallbacks
	}
	if c.MaxCascadePasses <= 0 {
		c.MaxCascadePasses = d.MaxCascadePasses
	}
	return c
}

// TickDelta is the real-time length of one timer tick in nanoseconds.
func (c Config) TickDelta() uint64 { return uint64(c.TickMS) * 1_000_000 }

// TargetedLatency in nanoseconds.
func (c Config) TargetedLatency() uint64 { return uint64(c.TargetedLatencyMS) * 1_000_000 }

// MinGranularity in nanoseconds.
func (c Config) MinGranularity() uint64 { return uint64(c.MinGranularityMS) * 1_000_000 }

// TickInterval as a duration, for driving a real timer.
func (c Config) TickInterval() time.Duration { return time.Duration(c.TickMS) * time.Millisecond }

// InitRetryDelay between init attempts.
func (c Config) InitRetryDelay() time.Duration {
	return time.Duration(c.InitRetryDelayMS) * time.Millisecond
}
