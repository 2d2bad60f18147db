package sched

import "github.com/sirupsen/logrus"

// emergencyCapacity bounds the last-resort queue. The tier exists to
// keep the system limping when every richer tier has failed, so it
// stays deliberately free of any machinery that could itself fail.
const emergencyCapacity = 64

// Emergency is the minimal bottom tier: a fixed slice FIFO with a
// one-tick quantum. Init cannot fail.
type Emergency struct {
	cfg     Config
	log     *logrus.Entry
	queue   []*Task
	current *Task
}

var _ Scheduler = (*Emergency)(nil)

func NewEmergency(cfg Config, log *logrus.Entry) *Emergency {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Emergency{cfg: cfg, log: log.WithField("tier", TierEmergency.String())}
}

func (e *Emergency) Tier() Tier   { return TierEmergency }
func (e *Emergency) Name() string { return "Emergency Minimal Scheduler" }

func (e *Emergency) Init() error {
	e.queue = make([]*Task, 0, emergencyCapacity)
	e.current = nil
	return nil
}

func (e *Emergency) AddTask(t *Task) error {
	if t == nil {
		return ErrNilTask
	}
	if t.State == StateTerminated {
		return ErrTaskTerminated
	}
	if len(e.queue) >= emergencyCapacity {
		return ErrArenaExhausted
	}
	t.State = StateReady
	e.queue = append(e.queue, t)
	return nil
}

func (e *Emergency) PickNextTask() *Task {
	if len(e.queue) == 0 {
		return nil
	}
	t := e.queue[0]
	copy(e.queue, e.queue[1:])
	e.queue = e.queue[:len(e.queue)-1]
	t.State = StateRunning
	e.current = t
	return t
}

// TaskTick rotates unconditionally: under emergency conditions every
// task gets exactly one tick.
func (e *Emergency) TaskTick() {
	cur := e.current
	if cur == nil {
		return
	}
	cur.TotalRuntime += e.cfg.TickDelta()
	cur.State = StateReady
	cur.ContextSwitches++
	e.current = nil
	if err := e.AddTask(cur); err != nil {
		e.log.WithField("pid", cur.Pid).WithError(err).Error("emergency requeue refused")
	}
}

func (e *Emergency) RemoveTask(t *Task) {
	if t == nil {
		return
	}
	if e.current == t {
		e.current = nil
	} else {
		for i, q := range e.queue {
			if q == t {
				e.queue = append(e.queue[:i], e.queue[i+1:]...)
				break
			}
		}
	}
	t.State = StateTerminated
}

func (e *Emergency) Cleanup() {
	e.queue = e.queue[:0]
	e.current = nil
}

func (e *Emergency) Current() *Task { return e.current }
func (e *Emergency) QueuedTasks() int { return len(e.queue) }
