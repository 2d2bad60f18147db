package sim

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// EventKind labels a scheduling event observed by the dispatch loop.
type EventKind int

const (
	EventAdmit EventKind = iota
	EventDispatch
	EventPreempt
	EventFinish
	EventFallback
)

func (k EventKind) String() string {
	switch k {
	case EventAdmit:
		return "admit"
	case EventDispatch:
		return "dispatch"
	case EventPreempt:
		return "preempt"
	case EventFinish:
		return "finish"
	case EventFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Event is one row of the simulation trace.
type Event struct {
	Time     time.Time
	Tick     int64
	Kind     EventKind
	Pid      uint32
	Vruntime uint64
	Runtime  uint64
}

// Tracer appends events to a CSV file for offline inspection.
type Tracer struct {
	file   *os.File
	writer *csv.Writer
}

// NewTracer creates the trace file and writes the header.
func NewTracer(path string) (*Tracer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	w.Write([]string{"timestamp", "tick", "event", "pid", "vruntime_ns", "runtime_ns"})
	w.Flush()
	return &Tracer{file: f, writer: w}, nil
}

// Record writes one event. A nil tracer records nothing.
func (t *Tracer) Record(ev Event) {
	if t == nil {
		return
	}
	t.writer.Write([]string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatInt(ev.Tick, 10),
		ev.Kind.String(),
		strconv.FormatUint(uint64(ev.Pid), 10),
		strconv.FormatUint(ev.Vruntime, 10),
		strconv.FormatUint(ev.Runtime, 10),
	})
	t.writer.Flush()
}

// Close flushes and closes the trace file.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.writer.Flush()
	return t.file.Close()
}
