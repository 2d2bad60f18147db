package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// TaskSpec describes one synthetic task: identity, scheduling class and
// a run budget after which the process layer terminates it. A zero
// budget means the task never finishes on its own.
type TaskSpec struct {
	Pid         uint32
	Nice        int
	Priority    uint8
	BudgetTicks uint64
}

// Workload is the set of tasks a simulation admits at boot.
type Workload []TaskSpec

// ParseWorkload turns "pid:nice[:budget]" strings into specs, e.g.
// "1:0", "2:-5:500".
func ParseWorkload(specs []string) (Workload, error) {
	wl := make(Workload, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("task spec %q: want pid:nice[:budget]", s)
		}
		pid, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("task spec %q: bad pid: %w", s, err)
		}
		nice, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("task spec %q: bad nice: %w", s, err)
		}
		var budget uint64
		if len(parts) == 3 {
			budget, err = strconv.ParseUint(parts[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("task spec %q: bad budget: %w", s, err)
			}
		}
		wl = append(wl, TaskSpec{
			Pid:         uint32(pid),
			Nice:        nice,
			Priority:    prioFromNice(nice),
			BudgetTicks: budget,
		})
	}
	return wl, nil
}

// DefaultWorkload spreads n tasks across the nice range so fairness is
// visible in the report.
func DefaultWorkload(n int) Workload {
	if n < 1 {
		n = 1
	}
	wl := make(Workload, 0, n)
	for i := 0; i < n; i++ {
		nice := -10 + (i*5)%25
		wl = append(wl, TaskSpec{
			Pid:      uint32(i + 1),
			Nice:     nice,
			Priority: prioFromNice(nice),
		})
	}
	return wl
}

// prioFromNice gives the non-CFS tiers something sensible when the
// workload only states a nice value: lower nice, higher priority.
func prioFromNice(nice int) uint8 {
	p := 128 - nice*4
	if p < 0 {
		p = 0
	} else if p > 255 {
		p = 255
	}
	return uint8(p)
}
