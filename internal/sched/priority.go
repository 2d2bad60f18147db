package sched

import (
	"fmt"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
	"github.com/sirupsen/logrus"
)

// Priority is the middle fallback tier: strict priority order with
// aging, so long-waiting low-priority tasks eventually run. Ties within
// a priority level dequeue in FIFO order.
type Priority struct {
	cfg     Config
	log     *logrus.Entry
	queue   *priorityqueue.Queue
	current *Task
	tick    uint64
	quantum uint64
	aging   uint64
}

var _ Scheduler = (*Priority)(nil)

func NewPriority(cfg Config, log *logrus.Entry) *Priority {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Priority{cfg: cfg, log: log.WithField("tier", TierPriority.String())}
}

func (p *Priority) Tier() Tier   { return TierPriority }
func (p *Priority) Name() string { return "Priority Scheduler with Aging" }

// byEffectivePriority dequeues the highest effective priority first,
// earliest enqueue first within a level.
func byEffectivePriority(a, b interface{}) int {
	ta, tb := a.(*Task), b.(*Task)
	ea, eb := effectivePriority(ta), effectivePriority(tb)
	if ea != eb {
		return -utils.IntComparator(ea, eb)
	}
	return utils.UInt64Comparator(ta.enqueuedAt, tb.enqueuedAt)
}

func effectivePriority(t *Task) int {
	e := int(t.Priority) + int(t.agingBoost)
	if e > 255 {
		e = 255
	}
	return e
}

func (p *Priority) Init() error {
	p.queue = priorityqueue.NewWith(byEffectivePriority)
	p.current = nil
	p.tick = 0
	p.quantum = uint64(p.cfg.PrioQuantumTicks)
	p.aging = uint64(p.cfg.AgingIntervalTicks)
	p.log.Debug("priority runqueue initialized")
	return nil
}

func (p *Priority) ValidateInit() error {
	if p.queue == nil || p.quantum == 0 || p.aging == 0 {
		return fmt.Errorf("%w: priority runqueue not initialized", ErrInvalidOps)
	}
	return nil
}

func (p *Priority) AddTask(t *Task) error {
	if t == nil {
		return ErrNilTask
	}
	if t.State == StateTerminated {
		return ErrTaskTerminated
	}
	t.State = StateReady
	t.enqueuedAt = p.tick
	t.agingBoost = 0
	t.ranTicks = 0
	p.queue.Enqueue(t)
	return nil
}

func (p *Priority) PickNextTask() *Task {
	v, ok := p.queue.Dequeue()
	if !ok {
		return nil
	}
	t := v.(*Task)
	t.State = StateRunning
	t.ranTicks = 0
	p.current = t
	return t
}

// TaskTick ages the waiting queue periodically and preempts the running
// task when its quantum is spent.
func (p *Priority) TaskTick() {
	p.tick++
	if p.aging > 0 && p.tick%p.aging == 0 {
		p.ageWaitingTasks()
	}

	cur := p.current
	if cur == nil {
		return
	}
	cur.TotalRuntime += p.cfg.TickDelta()
	cur.ranTicks++
	if cur.ranTicks < p.quantum {
		return
	}
	cur.State = StateReady
	cur.ContextSwitches++
	cur.ranTicks = 0
	p.current = nil
	if err := p.AddTask(cur); err != nil {
		p.log.WithField("pid", cur.Pid).WithError(err).Error("preempted task could not requeue")
	}
}

// ageWaitingTasks boosts every task that has waited a full aging
// interval, then rebuilds the heap so the new effective priorities take
// effect. Boosts cannot push a task past the top priority level.
func (p *Priority) ageWaitingTasks() {
	values := p.queue.Values()
	if len(values) == 0 {
		return
	}
	boosted := 0
	for _, v := range values {
		t := v.(*Task)
		if p.tick-t.enqueuedAt >= p.aging && effectivePriority(t) < 255 {
			t.agingBoost++
			boosted++
		}
	}
	if boosted == 0 {
		return
	}
	p.queue.Clear()
	for _, v := range values {
		p.queue.Enqueue(v)
	}
	p.log.WithField("boosted", boosted).Debug("aging pass complete")
}

func (p *Priority) RemoveTask(t *Task) {
	if t == nil {
		return
	}
	if p.current == t {
		p.current = nil
	} else {
		values := p.queue.Values()
		p.queue.Clear()
		for _, v := range values {
			if v.(*Task) != t {
				p.queue.Enqueue(v)
			}
		}
	}
	t.State = StateTerminated
}

func (p *Priority) Cleanup() {
	if p.queue != nil {
		p.queue.Clear()
	}
	p.current = nil
}

func (p *Priority) Current() *Task { return p.current }

func (p *Priority) QueuedTasks() int {
	if p.queue == nil {
		return 0
	}
	return p.queue.Size()
}
