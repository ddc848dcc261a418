package profiler

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-rpn/anchors"
	"github.com/nvr-ai/go-rpn/proposal"
)

func TestStageTimerRecordsOperations(t *testing.T) {
	timer := NewStageTimer()

	stop := timer.StartOperation("decode")
	time.Sleep(time.Millisecond)
	stop()

	timer.StartOperation("decode")() // immediate stop, near zero duration

	snapshot := timer.Snapshot()
	stats, ok := snapshot["decode"]
	require.True(t, ok, "the operation should appear in the snapshot")

	assert.Equal(t, int64(2), stats.Count)
	assert.GreaterOrEqual(t, stats.Total, stats.Max)
	assert.GreaterOrEqual(t, stats.Max, stats.Min)
	assert.GreaterOrEqual(t, stats.Max, time.Millisecond, "the slept call should dominate the maximum")
}

func TestStageTimerAvg(t *testing.T) {
	assert.Equal(t, time.Duration(0), StageStats{}.Avg(), "an empty stat has no average")
	stats := StageStats{Count: 4, Total: 2 * time.Second}
	assert.Equal(t, 500*time.Millisecond, stats.Avg())
}

func TestStageTimerReset(t *testing.T) {
	timer := NewStageTimer()
	timer.StartOperation("gather")()
	timer.Reset()
	assert.Empty(t, timer.Snapshot())
}

func TestStageTimerSnapshotIsACopy(t *testing.T) {
	timer := NewStageTimer()
	timer.StartOperation("refine")()

	snapshot := timer.Snapshot()
	s := snapshot["refine"]
	s.Count = 99
	snapshot["refine"] = s

	assert.Equal(t, int64(1), timer.Snapshot()["refine"].Count, "mutating a snapshot must not affect the timer")
}

func TestStageTimerConcurrent(t *testing.T) {
	timer := NewStageTimer()

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				timer.StartOperation("suppress")()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine), timer.Snapshot()["suppress"].Count)
}

func TestStageTimerHookObservesLayer(t *testing.T) {
	store, err := anchors.FromSlice([]float32{0.2, 0.2, 0.8, 0.8})
	require.NoError(t, err)

	timer := NewStageTimer()
	layer, err := proposal.NewWithOptions(store, proposal.DefaultParams(), proposal.Options{
		OnStage: timer.Hook(),
	})
	require.NoError(t, err)

	_, err = layer.Propose([]float32{0.1, 0.9}, make([]float32, 4))
	require.NoError(t, err)

	snapshot := timer.Snapshot()
	for _, stage := range []proposal.Stage{
		proposal.StageScoreExtract,
		proposal.StageTopK,
		proposal.StageGather,
		proposal.StageRefine,
		proposal.StageSuppress,
		proposal.StageWriteOutput,
	} {
		stats, ok := snapshot[stage.String()]
		require.True(t, ok, "stage %s should be recorded", stage)
		assert.Equal(t, int64(1), stats.Count, "stage %s", stage)
	}
}

func TestStageTimerReport(t *testing.T) {
	timer := NewStageTimer()
	timer.StartOperation("topk")()
	timer.StartOperation("gather")()

	var sb strings.Builder
	timer.Report(&sb)
	report := sb.String()

	assert.Contains(t, report, "STAGE TIMINGS:")
	assert.Contains(t, report, "topk: avg=")
	assert.Contains(t, report, "gather: avg=")
	assert.Less(t, strings.Index(report, "gather"), strings.Index(report, "topk"),
		"operations should be listed in name order")
}
