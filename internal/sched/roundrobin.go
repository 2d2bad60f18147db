package sched

import (
	"fmt"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/sirupsen/logrus"
)

// RoundRobin is the low-memory fallback tier: a plain FIFO with a fixed
// quantum. Add and pick are O(1).
type RoundRobin struct {
	cfg     Config
	log     *logrus.Entry
	queue   *linkedlistqueue.Queue
	current *Task
	quantum uint64
}

var _ Scheduler = (*RoundRobin)(nil)

func NewRoundRobin(cfg Config, log *logrus.Entry) *RoundRobin {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RoundRobin{cfg: cfg, log: log.WithField("tier", TierRoundRobin.String())}
}

func (r *RoundRobin) Tier() Tier   { return TierRoundRobin }
func (r *RoundRobin) Name() string { return "Round Robin Scheduler" }

func (r *RoundRobin) Init() error {
	r.queue = linkedlistqueue.New()
	r.current = nil
	r.quantum = uint64(r.cfg.RRQuantumTicks)
	r.log.Debug("round-robin queue initialized")
	return nil
}

func (r *RoundRobin) ValidateInit() error {
	if r.queue == nil || r.quantum == 0 {
		return fmt.Errorf("%w: round-robin queue not initialized", ErrInvalidOps)
	}
	return nil
}

func (r *RoundRobin) AddTask(t *Task) error {
	if t == nil {
		return ErrNilTask
	}
	if t.State == StateTerminated {
		return ErrTaskTerminated
	}
	t.State = StateReady
	t.ranTicks = 0
	r.queue.Enqueue(t)
	return nil
}

func (r *RoundRobin) PickNextTask() *Task {
	v, ok := r.queue.Dequeue()
	if !ok {
		return nil
	}
	t := v.(*Task)
	t.State = StateRunning
	t.ranTicks = 0
	r.current = t
	return t
}

func (r *RoundRobin) TaskTick() {
	cur := r.current
	if cur == nil {
		return
	}
	cur.TotalRuntime += r.cfg.TickDelta()
	cur.ranTicks++
	if cur.ranTicks < r.quantum {
		return
	}
	cur.State = StateReady
	cur.ContextSwitches++
	cur.ranTicks = 0
	r.current = nil
	if err := r.AddTask(cur); err != nil {
		r.log.WithField("pid", cur.Pid).WithError(err).Error("preempted task could not requeue")
	}
}

func (r *RoundRobin) RemoveTask(t *Task) {
	if t == nil {
		return
	}
	if r.current == t {
		r.current = nil
	} else {
		values := r.queue.Values()
		r.queue.Clear()
		for _, v := range values {
			if v.(*Task) != t {
				r.queue.Enqueue(v)
			}
		}
	}
	t.State = StateTerminated
}

func (r *RoundRobin) Cleanup() {
	if r.queue != nil {
		r.queue.Clear()
	}
	r.current = nil
}

func (r *RoundRobin) Current() *Task { return r.current }

func (r *RoundRobin) QueuedTasks() int {
	if r.queue == nil {
		return 0
	}
	return r.queue.Size()
}
