package sched

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// cfsRunqueue carries the tree index and the fairness bookkeeping around
// it. All time fields are nanoseconds.
type cfsRunqueue struct {
	tree  *rbTree
	arena *nodeArena

	nrRunning   uint32
	totalWeight uint64

	// minVruntime is the monotonically non-decreasing watermark newly
	// admitted tasks are placed against.
	minVruntime uint64
	avgVruntime uint64

	clock     uint64 // virtual clock, advanced every tick
	execClock uint64 // accumulated execution clock

	targetedLatency uint64 // may stretch under load, see updateStats
	minGranularity  uint64
	baseLatency     uint64

	// Decayed load averages (EWMA, 7/8 old + 1/8 new).
	loadAvg     uint64
	runnableAvg uint64
}

// CFS is the completely fair scheduler tier: tasks are indexed by
// virtual runtime in a red-black tree and the leftmost (lowest-vruntime)
// task runs next. Tree nodes come from a fixed arena sized at Init.
type CFS struct {
	cfg     Config
	log     *logrus.Entry
	rq      cfsRunqueue
	current *Task
}

var _ Scheduler = (*CFS)(nil)

// NewCFS builds the tier; Init must run before use.
func NewCFS(cfg Config, log *logrus.Entry) *CFS {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CFS{cfg: cfg, log: log.WithField("tier", TierCFS.String())}
}

func (s *CFS) Tier() Tier   { return TierCFS }
func (s *CFS) Name() string { return "Completely Fair Scheduler" }

// Init resets the runqueue and re-arms the node arena. Idempotent.
func (s *CFS) Init() error {
	arena := newNodeArena(s.cfg.ArenaCapacity)
	s.rq = cfsRunqueue{
		tree:            newRBTree(arena),
		arena:           arena,
		targetedLatency: s.cfg.TargetedLatency(),
		baseLatency:     s.cfg.TargetedLatency(),
		minGranularity:  s.cfg.MinGranularity(),
	}
	s.current = nil
	s.log.WithField("arena_capacity", arena.capacity()).Debug("cfs runqueue initialized")
	return nil
}

// ValidateInit confirms the runqueue is armed and its constants are
// coherent before any task is scheduled.
func (s *CFS) ValidateInit() error {
	switch {
	case s.rq.tree == nil || s.rq.arena == nil:
		return fmt.Errorf("%w: cfs runqueue not initialized", ErrInvalidOps)
	case s.rq.arena.capacity() < 1:
		return fmt.Errorf("%w: empty node arena", ErrInvalidOps)
	case s.rq.minGranularity == 0 || s.rq.targetedLatency < s.rq.minGranularity:
		return fmt.Errorf("%w: latency %d below granularity %d",
			ErrInvalidOps, s.rq.targetedLatency, s.rq.minGranularity)
	}
	return nil
}

// AddTask admits a task into the tree. Fresh tasks (zero vruntime) are
// placed at the watermark — never ahead of it — so they cannot
// front-run long-resident tasks; requeued tasks keep their vruntime.
func (s *CFS) AddTask(t *Task) error {
	if t == nil {
		return ErrNilTask
	}
	if t.State == StateTerminated {
		return ErrTaskTerminated
	}
	rq := &s.rq

	if t.Vruntime == 0 {
		if rq.nrRunning > 0 {
			// Small placement penalty keeps a fork storm from starving
			// the existing queue.
			t.Vruntime = rq.minVruntime + rq.targetedLatency/2
		} else {
			t.Vruntime = rq.minVruntime
		}
		if max := rq.minVruntime + rq.targetedLatency; t.Vruntime > max {
			t.Vruntime = max
		}
	}

	idx, err := rq.tree.Insert(t.Vruntime, t)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"pid":    t.Pid,
			"in_use": rq.arena.inUse(),
			"cap":    rq.arena.capacity(),
		}).Error("node arena exhausted, admission refused")
		return fmt.Errorf("add task %d: %w", t.Pid, err)
	}
	t.node = idx
	rq.nrRunning++
	rq.totalWeight += uint64(WeightOf(t.Nice))
	t.State = StateReady

	s.log.WithFields(logrus.Fields{
		"pid":      t.Pid,
		"vruntime": t.Vruntime,
		"weight":   WeightOf(t.Nice),
		"running":  rq.nrRunning,
	}).Debug("task admitted")
	return nil
}

// PickNextTask extracts the leftmost task, grants it a slice and marks
// it Running. The extraction is a full structural delete, so the node
// returns to the arena immediately.
func (s *CFS) PickNextTask() *Task {
	rq := &s.rq
	lm := rq.tree.Leftmost()
	if lm == nilNode {
		return nil
	}
	t := rq.tree.nodeAt(lm).task
	rq.tree.Delete(lm)
	t.node = nilNode

	w := uint64(WeightOf(t.Nice))
	if rq.totalWeight >= w {
		rq.totalWeight -= w
	} else {
		rq.totalWeight = 0
	}
	if rq.nrRunning > 0 {
		rq.nrRunning--
	}

	t.State = StateRunning
	t.TimeSlice = s.calcSlice(t)
	t.SliceStart = rq.clock
	s.current = t
	return t
}

// calcSlice grants the full targeted latency when the task is alone,
// otherwise its weight-proportional share of the latency window, floored
// at the minimum granularity. Called after the task left the tree, so
// its own weight is added back into the denominator.
func (s *CFS) calcSlice(t *Task) uint64 {
	rq := &s.rq
	if rq.nrRunning == 0 {
		return rq.targetedLatency
	}
	w := uint64(WeightOf(t.Nice))
	total := rq.totalWeight + w
	slice := rq.targetedLatency * w / total
	if slice < rq.minGranularity {
		slice = rq.minGranularity
	}
	return slice
}

// TaskTick advances the clocks by one tick, folds the fair delta into
// the running task, refreshes the watermark and the decayed averages,
// and evaluates the three preemption tests. Any one of them requeues the
// running task and clears it so the dispatch loop picks again.
func (s *CFS) TaskTick() {
	cur := s.current
	if cur == nil {
		return
	}
	rq := &s.rq
	delta := s.cfg.TickDelta()

	rq.clock += delta
	rq.execClock += delta
	s.updateStats()

	df := deltaFair(delta, cur.Nice)
	cur.Vruntime += df
	cur.ExecTime += delta
	cur.TotalRuntime += delta

	s.updateMinVruntime()

	preempt := ""
	if lm := rq.tree.Leftmost(); lm != nilNode {
		leftKey := rq.tree.nodeAt(lm).key
		switch {
		case cur.Vruntime > leftKey+rq.minGranularity:
			preempt = "fairness gap"
		case cur.ExecTime >= cur.TimeSlice:
			preempt = "slice exhausted"
		case cur.Vruntime > rq.avgVruntime+rq.targetedLatency:
			preempt = "ahead of average"
		}
	}
	if preempt == "" {
		return
	}

	cur.State = StateReady
	cur.ContextSwitches++
	cur.ExecTime = 0
	s.current = nil
	if err := s.AddTask(cur); err != nil {
		// Requeue refused (arena pressure); the task stays off-queue
		// until the process layer re-admits it.
		s.log.WithField("pid", cur.Pid).WithError(err).Error("preempted task could not requeue")
		return
	}
	s.log.WithFields(logrus.Fields{
		"pid":    cur.Pid,
		"reason": preempt,
	}).Debug("task preempted")
}

// updateStats refreshes the blended average, the decayed load figures
// and the load-stretched latency window.
func (s *CFS) updateStats() {
	rq := &s.rq
	if rq.nrRunning > 0 {
		rq.avgVruntime = rq.minVruntime
	}
	rq.loadAvg = (rq.loadAvg*7 + rq.totalWeight) / 8
	rq.runnableAvg = (rq.runnableAvg*7 + uint64(rq.nrRunning)) / 8

	// Many runnable tasks would shred the latency window into
	// sub-granularity slices; stretch it instead.
	if rq.nrRunning > 8 {
		rq.targetedLatency = rq.baseLatency * 2
	} else {
		rq.targetedLatency = rq.baseLatency
	}
}

// updateMinVruntime advances the watermark. When both a leftmost node
// and a running task exist the watermark blends the two (their average)
// rather than taking a strict minimum; the blend only ever moves the
// watermark forward.
func (s *CFS) updateMinVruntime() {
	rq := &s.rq
	v := rq.minVruntime
	if lm := rq.tree.Leftmost(); lm != nilNode {
		leftKey := rq.tree.nodeAt(lm).key
		if s.current == nil || leftKey < s.current.Vruntime {
			v = leftKey
		}
		if s.current != nil {
			v = (v + s.current.Vruntime) / 2
		}
	} else if s.current != nil {
		v = s.current.Vruntime
	}
	if v > rq.minVruntime {
		rq.minVruntime = v
	}
}

// RemoveTask drops a task's queue membership: the tree node is fully
// deleted and returned to the arena. Identity stays with the caller.
func (s *CFS) RemoveTask(t *Task) {
	if t == nil {
		return
	}
	rq := &s.rq
	if s.current == t {
		s.current = nil
	}
	if t.node != nilNode {
		rq.tree.Delete(t.node)
		t.node = nilNode
		w := uint64(WeightOf(t.Nice))
		if rq.totalWeight >= w {
			rq.totalWeight -= w
		} else {
			rq.totalWeight = 0
		}
		if rq.nrRunning > 0 {
			rq.nrRunning--
		}
	}
	t.State = StateTerminated
}

// Cleanup releases every queued task and re-arms the arena.
func (s *CFS) Cleanup() {
	if s.rq.tree != nil {
		s.rq.tree.clear()
	}
	s.rq.nrRunning = 0
	s.rq.totalWeight = 0
	s.current = nil
	s.log.Debug("cfs runqueue cleaned up")
}

func (s *CFS) Current() *Task { return s.current }

func (s *CFS) QueuedTasks() int {
	if s.rq.tree == nil {
		return 0
	}
	return s.rq.tree.Size()
}
