package sched

import (
	"sync/atomic"
	"time"
)

// TickSource models the hardware timer interrupt: it emits on C at a
// fixed interval and counts emissions atomically. The scheduler core
// never blocks on it; the dispatch loop does.
type TickSource struct {
	C        <-chan struct{}
	ch       chan struct{}
	interval time.Duration
	count    atomic.Int64
	stop     chan struct{}
	started  atomic.Bool
}

// NewTickSource creates a stopped source. buffer absorbs bursts when the
// consumer falls behind a few interrupts.
func NewTickSource(interval time.Duration, buffer int) *TickSource {
	ch := make(chan struct{}, buffer)
	return &TickSource{
		C:        ch,
		ch:       ch,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins emitting ticks. Starting twice is a no-op.
func (s *TickSource) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.count.Add(1)
				select {
				case s.ch <- struct{}{}:
				default: // consumer stalled; drop rather than block the timer
				}
			case <-s.stop:
				close(s.ch)
				return
			}
		}
	}()
}

// Stop shuts the source down and closes C.
func (s *TickSource) Stop() {
	close(s.stop)
}

// Count returns the number of ticks emitted so far.
func (s *TickSource) Count() int64 {
	return s.count.Load()
}
