// Package sim drives a scheduler cascade the way the kernel's dispatch
// loop would: a periodic tick feeds task_tick, and whenever no task is
// current the loop asks for the next one. It stands in for the process
// layer too, terminating tasks whose run budget is spent.
package sim

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fairsched/internal/sched"
)

// Runner executes a workload against a cascade for a fixed number of
// ticks.
type Runner struct {
	casc   *sched.Cascade
	cfg    sched.Config
	log    *logrus.Entry
	tracer *Tracer
	paced  bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTracer records the event trace to CSV.
func WithTracer(t *Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// WithPacing drives ticks from a real timer at the configured interval
// instead of as fast as possible.
func WithPacing() RunnerOption {
	return func(r *Runner) { r.paced = true }
}

// WithRunnerLogger sets the log entry.
func WithRunnerLogger(log *logrus.Entry) RunnerOption {
	return func(r *Runner) { r.log = log }
}

func NewRunner(casc *sched.Cascade, cfg sched.Config, opts ...RunnerOption) *Runner {
	r := &Runner{casc: casc, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	r.log = r.log.WithField("component", "sim")
	return r
}

// TaskResult is one task's share of the run.
type TaskResult struct {
	Pid             uint32
	Nice            int8
	RuntimeNS       uint64
	ContextSwitches uint32
	Finished        bool
}

// Report summarizes a simulation.
type Report struct {
	Tier    sched.Tier
	Ticks   int64
	Results []TaskResult
	Dump    string
}

// String renders the report as an operator-readable table.
func (rep *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tier %s, %d ticks\n", rep.Tier, rep.Ticks)
	fmt.Fprintf(&b, "%8s %6s %16s %9s %9s\n", "pid", "nice", "runtime_ns", "switches", "finished")
	for _, res := range rep.Results {
		fmt.Fprintf(&b, "%8d %6d %16d %9d %9v\n",
			res.Pid, res.Nice, res.RuntimeNS, res.ContextSwitches, res.Finished)
	}
	b.WriteString(rep.Dump)
	return b.String()
}

// Run admits the workload, then ticks the cascade for the requested
// number of ticks, dispatching whenever the current slot is empty and
// retiring tasks whose budget is spent.
func (r *Runner) Run(ctx context.Context, wl Workload, ticks int64) (*Report, error) {
	tasks := make(map[uint32]*sched.Task, len(wl))
	budgets := make(map[uint32]uint64, len(wl))
	finished := make(map[uint32]bool, len(wl))

	for _, spec := range wl {
		t := sched.NewTask(spec.Pid, spec.Nice, spec.Priority)
		if err := r.casc.AddTask(t); err != nil {
			return nil, fmt.Errorf("admit pid %d: %w", spec.Pid, err)
		}
		tasks[spec.Pid] = t
		if spec.BudgetTicks > 0 {
			budgets[spec.Pid] = spec.BudgetTicks * r.cfg.TickDelta()
		}
		r.tracer.Record(Event{Time: time.Now(), Kind: EventAdmit, Pid: t.Pid, Vruntime: t.Vruntime})
	}

	var clock *sched.TickSource
	if r.paced {
		clock = sched.NewTickSource(r.cfg.TickInterval(), 256)
		clock.Start()
		defer clock.Stop()
	}

	var tick int64
	for tick = 0; tick < ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if clock != nil {
			if _, ok := <-clock.C; !ok {
				break
			}
		}

		before := r.casc.Current()
		r.casc.TaskTick()
		cur := r.casc.Current()

		if before != nil && cur == nil {
			r.tracer.Record(Event{
				Time: time.Now(), Tick: tick, Kind: EventPreempt,
				Pid: before.Pid, Vruntime: before.Vruntime, Runtime: before.TotalRuntime,
			})
		}

		// Process layer: retire the running task once its budget is
		// spent.
		if cur != nil {
			if budget, ok := budgets[cur.Pid]; ok && cur.TotalRuntime >= budget {
				cur.State = sched.StateTerminated
				r.casc.RemoveTask(cur)
				finished[cur.Pid] = true
				r.tracer.Record(Event{
					Time: time.Now(), Tick: tick, Kind: EventFinish,
					Pid: cur.Pid, Vruntime: cur.Vruntime, Runtime: cur.TotalRuntime,
				})
				cur = nil
			}
		}

		if cur == nil {
			if next := r.casc.PickNextTask(); next != nil {
				r.tracer.Record(Event{
					Time: time.Now(), Tick: tick, Kind: EventDispatch,
					Pid: next.Pid, Vruntime: next.Vruntime, Runtime: next.TotalRuntime,
				})
			}
		}
	}

	rep := &Report{
		Tier:  r.casc.ActiveTier(),
		Ticks: tick,
		Dump:  r.casc.DumpState(),
	}
	for _, t := range tasks {
		rep.Results = append(rep.Results, TaskResult{
			Pid:             t.Pid,
			Nice:            t.Nice,
			RuntimeNS:       t.TotalRuntime,
			ContextSwitches: t.ContextSwitches,
			Finished:        finished[t.Pid],
		})
	}
	sort.Slice(rep.Results, func(i, j int) bool { return rep.Results[i].Pid < rep.Results[j].Pid })
	return rep, nil
}
