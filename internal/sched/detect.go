package sched

// Free-page thresholds for tier detection. Fixed and documented so that
// re-running detection with the same input always yields the same tier.
const (
	// FreePagesCFS: above this, memory is plentiful enough for the
	// red-black tree arena.
	FreePagesCFS = 100
	// FreePagesPriority: middle band, enough for the priority queues.
	FreePagesPriority = 50
	// FreePagesCritical: at or below this floor no tier is viable and
	// the cascade heads toward Fatal.
	FreePagesCritical = 10
)

// MemoryProbe reports the current free physical page count — the single
// external signal tier detection consumes.
type MemoryProbe func() uint64

// DetectBestScheduler is a pure function of the free page count.
func DetectBestScheduler(freePages uint64) Tier {
	switch {
	case freePages > FreePagesCFS:
		return TierCFS
	case freePages > FreePagesPriority:
		return TierPriority
	case freePages > FreePagesCritical:
		return TierRoundRobin
	default:
		return TierNone
	}
}
