package sched

// Tier tags the closed set of interchangeable scheduling algorithms,
// ordered from most to least sophisticated. Fallback only ever moves
// down this ladder.
type Tier uint8

const (
	TierCFS Tier = iota
	TierPriority
	TierRoundRobin
	TierEmergency
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierCFS:
		return "cfs"
	case TierPriority:
		return "priority"
	case TierRoundRobin:
		return "round-robin"
	case TierEmergency:
		return "emergency"
	case TierNone:
		return "none"
	default:
		return "unknown"
	}
}

// Next returns the strictly lower tier, or false from the bottom of the
// ladder.
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierCFS:
		return TierPriority, true
	case TierPriority:
		return TierRoundRobin, true
	case TierRoundRobin:
		return TierEmergency, true
	default:
		return TierNone, false
	}
}

// Scheduler is the operation contract every tier implements identically.
// Every caller — the cascade controller, the timer interrupt path and
// the process layer — depends only on this contract, never on a concrete
// algorithm's internals.
type Scheduler interface {
	// Init performs idempotent setup; a failed Init may be retried.
	Init() error
	// AddTask enqueues a Ready task. Arena or queue exhaustion refuses
	// the admission with an error; the task is left untouched.
	AddTask(t *Task) error
	// PickNextTask dequeues and returns the next task to run, nil when
	// idle. Picking is not an accounting event.
	PickNextTask() *Task
	// TaskTick performs per-interrupt accounting and the preemption
	// decision for the currently running task.
	TaskTick()
	// RemoveTask releases a task's queue membership, typically after the
	// process layer marked it Terminated.
	RemoveTask(t *Task)
	// Cleanup releases all queued state.
	Cleanup()

	// Tier reports the algorithm tag and Name its display name.
	Tier() Tier
	Name() string
	// Current returns the task selected by the last pick, nil after a
	// preemption cleared it.
	Current() *Task
	// QueuedTasks is the number of runnable tasks waiting in the queue.
	QueuedTasks() int
	// DumpState renders human-readable diagnostics. Read-only; not part
	// of the scheduling contract.
	DumpState() string
}

// initValidator is implemented by tiers that carry invariants worth
// checking before any task is scheduled under them.
type initValidator interface {
	ValidateInit() error
}
