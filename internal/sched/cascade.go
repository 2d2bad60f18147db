package sched

import (
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// CascadeState tracks the controller's bring-up state machine:
// Detecting → Initializing → Validating → Running, with a FallingBack
// loop and a terminal Fatal state.
type CascadeState uint8

const (
	CascadeDetecting CascadeState = iota
	CascadeInitializing
	CascadeValidating
	CascadeRunning
	CascadeFallingBack
	CascadeFatal
)

func (s CascadeState) String() string {
	switch s {
	case CascadeDetecting:
		return "detecting"
	case CascadeInitializing:
		return "initializing"
	case CascadeValidating:
		return "validating"
	case CascadeRunning:
		return "running"
	case CascadeFallingBack:
		return "falling-back"
	case CascadeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Factory binds a tier tag to a concrete implementation. Injected so
// tests can substitute failing tiers.
type Factory func(tier Tier, cfg Config, log *logrus.Entry) Scheduler

func defaultFactory(tier Tier, cfg Config, log *logrus.Entry) Scheduler {
	switch tier {
	case TierCFS:
		return NewCFS(cfg, log)
	case TierPriority:
		return NewPriority(cfg, log)
	case TierRoundRobin:
		return NewRoundRobin(cfg, log)
	case TierEmergency:
		return NewEmergency(cfg, log)
	default:
		return nil
	}
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithLogger sets the base log entry.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Cascade) { c.log = log }
}

// WithFactory overrides tier construction.
func WithFactory(f Factory) Option {
	return func(c *Cascade) { c.factory = f }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(c *Cascade) { c.metrics = m }
}

// Cascade selects the best tier for current memory conditions, brings
// it up with bounded retries, validates it, and degrades down the tier
// ladder on failure. All scheduling traffic flows through it, so callers
// never touch a concrete tier.
type Cascade struct {
	cfg     Config
	log     *logrus.Entry
	probe   MemoryProbe
	factory Factory
	metrics *Metrics

	state     CascadeState
	tier      Tier
	sched     Scheduler
	fallbacks int
}

// NewCascade builds a controller bound to a memory probe. Init must be
// called before any scheduling operation.
func NewCascade(cfg Config, probe MemoryProbe, opts ...Option) *Cascade {
	c := &Cascade{
		cfg:     cfg.clamped(),
		probe:   probe,
		factory: defaultFactory,
		state:   CascadeDetecting,
		tier:    TierNone,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("component", "cascade")
	return c
}

// Init runs the detection/bring-up passes. On success the cascade is
// Running and bound to a tier; on ErrNoViableScheduler or
// ErrSchedulerFatal the cascade is Fatal and must not be used — the
// caller owns halting.
func (c *Cascade) Init() error {
	var lastErr error
	for pass := 0; pass < c.cfg.MaxCascadePasses; pass++ {
		c.state = CascadeDetecting
		free := c.probe()
		tier := DetectBestScheduler(free)
		c.log.WithFields(logrus.Fields{
			"free_pages": free,
			"tier":       tier.String(),
			"pass":       pass,
		}).Info("scheduler tier detected")

		if tier == TierNone {
			c.state = CascadeFatal
			return fmt.Errorf("%w: %d free pages below critical floor", ErrNoViableScheduler, free)
		}

		lastErr = c.bringUp(tier)
		if lastErr == nil {
			return nil
		}
		if c.state == CascadeFatal {
			return lastErr
		}
	}
	c.state = CascadeFatal
	if lastErr == nil {
		lastErr = ErrSchedulerFatal
	}
	return lastErr
}

// bringUp walks down the ladder from tier until a tier passes init,
// validation and the self-test, or the fallback budget runs out.
func (c *Cascade) bringUp(tier Tier) error {
	for {
		c.tier = tier
		s := c.factory(tier, c.cfg, c.log)
		err := c.attempt(s)
		if err == nil {
			c.sched = s
			c.state = CascadeRunning
			c.log.WithFields(logrus.Fields{
				"tier":      tier.String(),
				"name":      s.Name(),
				"fallbacks": c.fallbacks,
			}).Info("scheduler running")
			return nil
		}
		c.log.WithError(err).WithField("tier", tier.String()).Warn("scheduler tier failed")
		if s != nil {
			s.Cleanup()
		}

		c.state = CascadeFallingBack
		next, ok := c.nextTier()
		if !ok {
			c.state = CascadeFatal
			c.log.Error("tier ladder exhausted, no scheduler can run")
			return ErrSchedulerFatal
		}
		tier = next
	}
}

func (c *Cascade) attempt(s Scheduler) error {
	if s == nil {
		return fmt.Errorf("%w: no implementation for tier %s", ErrInvalidOps, c.tier)
	}
	c.state = CascadeInitializing
	if err := c.initWithRetries(s); err != nil {
		return fmt.Errorf("init %s: %w", s.Name(), err)
	}
	c.state = CascadeValidating
	if err := c.validateSchedulerInit(s); err != nil {
		return err
	}
	return c.runSystemTest(s)
}

// initWithRetries attempts Init with a short constant back-off between
// attempts; exhausting the retries is a permanent failure for the tier.
func (c *Cascade) initWithRetries(s Scheduler) error {
	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(c.cfg.InitRetryDelay()),
		uint64(c.cfg.InitRetries),
	)
	return backoff.Retry(s.Init, policy)
}

// validateSchedulerInit confirms the ops surface is populated and the
// tier's own invariants hold before any task is scheduled under it.
func (c *Cascade) validateSchedulerInit(s Scheduler) error {
	if s.Name() == "" {
		return fmt.Errorf("%w: empty display name", ErrInvalidOps)
	}
	if s.Tier() != c.tier {
		return fmt.Errorf("%w: bound tier %s reports %s", ErrInvalidOps, c.tier, s.Tier())
	}
	if v, ok := s.(initValidator); ok {
		if err := v.ValidateInit(); err != nil {
			return err
		}
	}
	return nil
}

// systemTestPid marks the throwaway task the self-test round-trips.
const systemTestPid = ^uint32(0)

// runSystemTest performs a synthetic add → pick → verify → destroy
// round trip through the candidate tier.
func (c *Cascade) runSystemTest(s Scheduler) error {
	probe := NewTask(systemTestPid, 0, 128)
	if err := s.AddTask(probe); err != nil {
		return fmt.Errorf("self-test add: %w", err)
	}
	got := s.PickNextTask()
	if got == nil {
		s.RemoveTask(probe)
		return fmt.Errorf("self-test: %s returned no task", s.Name())
	}
	defer s.RemoveTask(got)
	if got.Pid != probe.Pid {
		return fmt.Errorf("self-test: picked pid %d, want %d", got.Pid, probe.Pid)
	}
	return nil
}

// nextTier strictly downgrades, bounded by the fallback budget.
func (c *Cascade) nextTier() (Tier, bool) {
	if c.fallbacks >= c.cfg.MaxFallbacks {
		return TierNone, false
	}
	next, ok := c.tier.Next()
	if !ok {
		return TierNone, false
	}
	c.fallbacks++
	c.metrics.incFallback()
	return next, true
}

// State reports the controller state.
func (c *Cascade) State() CascadeState { return c.state }

// ActiveTier reports the bound tier tag.
func (c *Cascade) ActiveTier() Tier { return c.tier }

// Active exposes the bound scheduler, nil before Running.
func (c *Cascade) Active() Scheduler { return c.sched }

// Fallbacks reports how many downgrades the controller has taken.
func (c *Cascade) Fallbacks() int { return c.fallbacks }

// AddTask admits a task into the active tier.
func (c *Cascade) AddTask(t *Task) error {
	if c.state != CascadeRunning {
		return ErrNotRunning
	}
	err := c.sched.AddTask(t)
	c.metrics.incAdmission(err != nil)
	if err == nil {
		c.metrics.setRunnable(c.sched.QueuedTasks())
	}
	return err
}

// PickNextTask dispatches the next task from the active tier.
func (c *Cascade) PickNextTask() *Task {
	if c.state != CascadeRunning {
		return nil
	}
	t := c.sched.PickNextTask()
	if t != nil {
		c.metrics.incPick()
	}
	c.metrics.setRunnable(c.sched.QueuedTasks())
	return t
}

// TaskTick forwards the timer interrupt to the active tier.
func (c *Cascade) TaskTick() {
	if c.state != CascadeRunning {
		return
	}
	hadCurrent := c.sched.Current() != nil
	c.sched.TaskTick()
	c.metrics.incTick()
	if hadCurrent && c.sched.Current() == nil {
		c.metrics.incPreemption()
		c.metrics.setRunnable(c.sched.QueuedTasks())
	}
}

// RemoveTask releases a terminated task from the active tier.
func (c *Cascade) RemoveTask(t *Task) {
	if c.state != CascadeRunning {
		return
	}
	c.sched.RemoveTask(t)
	c.metrics.setRunnable(c.sched.QueuedTasks())
}

// Current returns the active tier's running task, nil when idle.
func (c *Cascade) Current() *Task {
	if c.state != CascadeRunning {
		return nil
	}
	return c.sched.Current()
}

// Shutdown releases the active tier's queued state. The cascade drops
// back to Detecting; a later Init rebuilds everything from scratch.
func (c *Cascade) Shutdown() {
	if c.sched != nil {
		c.sched.Cleanup()
		c.sched = nil
	}
	if c.state != CascadeFatal {
		c.state = CascadeDetecting
		c.tier = TierNone
	}
}
