package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readTrace(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func TestTracerWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	tr, err := NewTracer(path)
	require.NoError(t, err)

	tr.Record(Event{Time: time.Now(), Tick: 3, Kind: EventDispatch, Pid: 9, Vruntime: 123, Runtime: 456})
	require.NoError(t, tr.Close())

	data, err := readTrace(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "timestamp,tick,event,pid,vruntime_ns,runtime_ns", lines[0])
	require.Contains(t, lines[1], ",3,dispatch,9,123,456")
}

func TestTracerNilSafe(t *testing.T) {
	var tr *Tracer
	tr.Record(Event{Kind: EventAdmit})
	require.NoError(t, tr.Close())
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "admit", EventAdmit.String())
	require.Equal(t, "dispatch", EventDispatch.String())
	require.Equal(t, "preempt", EventPreempt.String())
	require.Equal(t, "finish", EventFinish.String())
	require.Equal(t, "fallback", EventFallback.String())
}
