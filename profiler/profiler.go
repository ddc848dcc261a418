// Package profiler - Stage timing for the proposal pipeline.
package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-rpn/proposal"
)

// StageStats holds timing statistics for one named operation.
type StageStats struct {
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Avg returns the mean duration over all recorded calls.
func (s StageStats) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// StageTimer collects per-operation timing statistics. It is safe for
// concurrent use, so a single timer can observe a layer shared by many
// goroutines.
type StageTimer struct {
	mu    sync.Mutex
	stats map[string]*StageStats
}

// NewStageTimer creates an empty stage timer.
func NewStageTimer() *StageTimer {
	return &StageTimer{stats: make(map[string]*StageStats)}
}

// StartOperation begins timing a named operation.
//
// Arguments:
//   - name: The name of the operation to track
//
// Returns:
//   - A function to call when the operation completes
func (st *StageTimer) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		st.record(name, time.Since(start))
	}
}

// Hook adapts the timer to the proposal layer's stage instrumentation, so
// each pipeline stage is recorded under its stage name.
func (st *StageTimer) Hook() proposal.StageHook {
	return func(s proposal.Stage) func() {
		return st.StartOperation(s.String())
	}
}

func (st *StageTimer) record(name string, duration time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats, exists := st.stats[name]
	if !exists {
		stats = &StageStats{Min: duration, Max: duration}
		st.stats[name] = stats
	}

	stats.Count++
	stats.Total += duration

	if duration < stats.Min {
		stats.Min = duration
	}
	if duration > stats.Max {
		stats.Max = duration
	}
}

// Snapshot returns a copy of the current statistics keyed by operation name.
func (st *StageTimer) Snapshot() map[string]StageStats {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make(map[string]StageStats, len(st.stats))
	for name, stats := range st.stats {
		out[name] = *stats
	}
	return out
}

// Reset clears all recorded statistics.
func (st *StageTimer) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stats = make(map[string]*StageStats)
}

// Report writes a timing summary, one line per operation in name order.
func (st *StageTimer) Report(w io.Writer) {
	snapshot := st.Snapshot()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "STAGE TIMINGS:\n")
	for _, name := range names {
		stats := snapshot[name]
		fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
			name,
			stats.Avg().Truncate(time.Microsecond),
			stats.Min.Truncate(time.Microsecond),
			stats.Max.Truncate(time.Microsecond),
			stats.Count)
	}
}
