package sched

import "fmt"

// TaskState tracks where a task sits in its Ready/Running cycle. The
// scheduler only ever moves tasks between Ready and Running; Blocked and
// Terminated are set by the external process layer.
type TaskState uint8

const (
	StateReady TaskState = iota
	StateRunning
	StateBlocked
	StateTerminated
)

func (s TaskState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Task is the schedulable unit. The process layer owns its identity; the
// scheduler owns only queue membership and the accounting fields.
type Task struct {
	Pid      uint32
	Nice     int8  // -20..19, clamped at construction
	Priority uint8 // used by the non-CFS tiers; higher runs first
	State    TaskState

	// CFS accounting, all in nanoseconds. Vruntime never moves backwards
	// while the task accumulates execution.
	Vruntime        uint64
	ExecTime        uint64 // execution time within the current slice
	TotalRuntime    uint64 // lifetime execution time
	TimeSlice       uint64 // quantum assigned at pick time
	SliceStart      uint64 // runqueue clock when the slice was granted
	ContextSwitches uint32

	// node is the arena index of this task's tree node while queued
	// under CFS, nilNode otherwise.
	node int32

	// Bookkeeping for the non-CFS tiers.
	enqueuedAt uint64 // tier tick count at enqueue, for FIFO order and aging
	ranTicks   uint64 // ticks consumed from the current quantum
	agingBoost uint8  // effective-priority boost accrued while waiting
}

// NewTask builds a task in the Ready state with its nice value clamped to
// the legal range. Vruntime stays zero; the active tier assigns the
// initial placement on admission.
func NewTask(pid uint32, nice int, priority uint8) *Task {
	if nice < NiceMin {
		nice = NiceMin
	} else if nice > NiceMax {
		nice = NiceMax
	}
	return &Task{
		Pid:      pid,
		Nice:     int8(nice),
		Priority: priority,
		State:    StateReady,
		node:     nilNode,
	}
}

// Queued reports whether the task currently holds a CFS tree node.
func (t *Task) Queued() bool { return t.node != nilNode }
