package sched

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// DumpState renders the full CFS runqueue diagnostics: counters, clocks,
// configured latencies, load averages and the next/current task.
func (s *CFS) DumpState() string {
	rq := &s.rq
	var b strings.Builder
	b.WriteString("=== CFS SCHEDULER STATE ===\n")
	fmt.Fprintf(&b, "nr running:       %s\n", humanize.Comma(int64(rq.nrRunning)))
	fmt.Fprintf(&b, "total weight:     %s\n", humanize.Comma(int64(rq.totalWeight)))
	fmt.Fprintf(&b, "min vruntime:     %s ns\n", humanize.Comma(int64(rq.minVruntime)))
	fmt.Fprintf(&b, "avg vruntime:     %s ns\n", humanize.Comma(int64(rq.avgVruntime)))
	fmt.Fprintf(&b, "virtual clock:    %s ns\n", humanize.Comma(int64(rq.clock)))
	fmt.Fprintf(&b, "exec clock:       %s ns\n", humanize.Comma(int64(rq.execClock)))
	fmt.Fprintf(&b, "targeted latency: %s ns\n", humanize.Comma(int64(rq.targetedLatency)))
	fmt.Fprintf(&b, "min granularity:  %s ns\n", humanize.Comma(int64(rq.minGranularity)))
	fmt.Fprintf(&b, "load average:     %s\n", humanize.Comma(int64(rq.loadAvg)))
	fmt.Fprintf(&b, "runnable average: %s\n", humanize.Comma(int64(rq.runnableAvg)))

	if rq.tree != nil {
		if lm := rq.tree.Leftmost(); lm != nilNode {
			n := rq.tree.nodeAt(lm)
			fmt.Fprintf(&b, "next task:        pid %d vruntime %s ns weight %d\n",
				n.task.Pid, humanize.Comma(int64(n.key)), WeightOf(n.task.Nice))
		} else {
			b.WriteString("next task:        none\n")
		}
		fmt.Fprintf(&b, "arena:            %d/%d nodes in use\n",
			rq.arena.inUse(), rq.arena.capacity())
	}
	if cur := s.current; cur != nil {
		fmt.Fprintf(&b, "current task:     pid %d vruntime %s ns nice %d slice %s ns exec %s ns\n",
			cur.Pid, humanize.Comma(int64(cur.Vruntime)), cur.Nice,
			humanize.Comma(int64(cur.TimeSlice)), humanize.Comma(int64(cur.ExecTime)))
	} else {
		b.WriteString("current task:     none\n")
	}
	return b.String()
}

func (p *Priority) DumpState() string {
	var b strings.Builder
	b.WriteString("=== PRIORITY SCHEDULER STATE ===\n")
	fmt.Fprintf(&b, "queued:  %d\n", p.QueuedTasks())
	fmt.Fprintf(&b, "tick:    %s\n", humanize.Comma(int64(p.tick)))
	fmt.Fprintf(&b, "quantum: %d ticks, aging every %d ticks\n", p.quantum, p.aging)
	dumpCurrent(&b, p.current)
	return b.String()
}

func (r *RoundRobin) DumpState() string {
	var b strings.Builder
	b.WriteString("=== ROUND-ROBIN SCHEDULER STATE ===\n")
	fmt.Fprintf(&b, "queued:  %d\n", r.QueuedTasks())
	fmt.Fprintf(&b, "quantum: %d ticks\n", r.quantum)
	dumpCurrent(&b, r.current)
	return b.String()
}

func (e *Emergency) DumpState() string {
	var b strings.Builder
	b.WriteString("=== EMERGENCY SCHEDULER STATE ===\n")
	fmt.Fprintf(&b, "queued: %d/%d\n", len(e.queue), emergencyCapacity)
	dumpCurrent(&b, e.current)
	return b.String()
}

func dumpCurrent(b *strings.Builder, cur *Task) {
	if cur != nil {
		fmt.Fprintf(b, "current: pid %d priority %d runtime %s ns\n",
			cur.Pid, cur.Priority, humanize.Comma(int64(cur.TotalRuntime)))
	} else {
		b.WriteString("current: none\n")
	}
}

// DumpState renders the controller state plus the active tier's dump.
func (c *Cascade) DumpState() string {
	var b strings.Builder
	b.WriteString("=== SCHEDULER CASCADE STATE ===\n")
	fmt.Fprintf(&b, "state:     %s\n", c.state)
	fmt.Fprintf(&b, "tier:      %s\n", c.tier)
	fmt.Fprintf(&b, "fallbacks: %d/%d\n", c.fallbacks, c.cfg.MaxFallbacks)
	if c.sched != nil {
		b.WriteString(c.sched.DumpState())
	}
	return b.String()
}
