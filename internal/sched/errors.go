package sched

import "errors"

var (
	// ErrArenaExhausted is returned by AddTask when no tree node can be
	// drawn from the fixed arena. The admission is refused; the task is
	// left untouched.
	ErrArenaExhausted = errors.New("sched: rb node arena exhausted")

	// ErrNilTask is returned when a nil task is handed to an admission
	// or removal path.
	ErrNilTask = errors.New("sched: nil task")

	// ErrTaskTerminated is returned when a terminated task is handed to
	// AddTask.
	ErrTaskTerminated = errors.New("sched: task is terminated")

	// ErrNoViableScheduler means detection found no tier that can run
	// under the current memory pressure.
	ErrNoViableScheduler = errors.New("sched: no viable scheduler tier")

	// ErrSchedulerFatal means the cascade exhausted the full tier ladder.
	// There is no degraded mode below "some scheduler is running".
	ErrSchedulerFatal = errors.New("sched: all scheduler tiers failed")

	// ErrNotRunning is returned by cascade operations invoked before the
	// controller reached the Running state or after it went Fatal.
	ErrNotRunning = errors.New("sched: scheduler cascade is not running")

	// ErrInvalidOps is returned by validation when a bound tier is
	// missing its display name or reports the wrong tier tag.
	ErrInvalidOps = errors.New("sched: scheduler ops table failed validation")
)
