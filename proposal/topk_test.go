package proposal

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairsFromScores builds an interleaved (background, objectness) buffer
// where the objectness values are the given scores.
func pairsFromScores(scores []float32) []float32 {
	pairs := make([]float32, 0, len(scores)*ScorePairSize)
	for _, s := range scores {
		pairs = append(pairs, 1-s, s)
	}
	return pairs
}

func mustView(t *testing.T, scores []float32) ScoreView {
	t.Helper()
	view, err := ObjectScores(pairsFromScores(scores))
	require.NoError(t, err)
	return view
}

func TestSelectTopKOrdering(t *testing.T) {
	view := mustView(t, []float32{0.1, 0.9, 0.8, 0.2, 0.5})

	got := selectTopK(view, 3, make([]int32, 3))
	assert.Equal(t, []int32{1, 2, 4}, got, "top 3 should be the highest scores in descending order")

	got = selectTopK(view, 5, make([]int32, 5))
	assert.Equal(t, []int32{1, 2, 4, 3, 0}, got, "full selection should be a descending sort")
}

func TestSelectTopKTieBreak(t *testing.T) {
	// Three way tie at 0.5 plus a tie at the selection boundary.
	view := mustView(t, []float32{0.5, 0.9, 0.5, 0.5, 0.2})

	got := selectTopK(view, 3, make([]int32, 3))
	assert.Equal(t, []int32{1, 0, 2}, got, "equal scores should rank by ascending index")

	got = selectTopK(view, 4, make([]int32, 4))
	assert.Equal(t, []int32{1, 0, 2, 3}, got, "boundary ties should admit the lower index")
}

func TestSelectTopKClamps(t *testing.T) {
	view := mustView(t, []float32{0.3, 0.7})

	got := selectTopK(view, 10, make([]int32, 10))
	assert.Equal(t, []int32{1, 0}, got, "k larger than N should clamp to N")

	got = selectTopK(view, 0, make([]int32, 4))
	assert.Empty(t, got, "k of zero should select nothing")
}

// TestSelectTopKAgainstSort cross-checks the heap selection against a full
// reference sort on random inputs.
func TestSelectTopKAgainstSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		n := 50 + rng.Intn(500)
		scores := make([]float32, n)
		for i := range scores {
			// Coarse quantization forces plenty of score ties.
			scores[i] = float32(rng.Intn(32)) / 32
		}
		k := 1 + rng.Intn(n)

		ref := make([]int32, n)
		for i := range ref {
			ref[i] = int32(i)
		}
		sort.Slice(ref, func(i, j int) bool {
			si, sj := scores[ref[i]], scores[ref[j]]
			if si != sj {
				return si > sj
			}
			return ref[i] < ref[j]
		})

		view := mustView(t, scores)
		got := selectTopK(view, k, make([]int32, k))

		require.Equal(t, ref[:k], got, "trial %d: n=%d k=%d", trial, n, k)
	}
}

func TestSelectTopKScratchReuse(t *testing.T) {
	view := mustView(t, []float32{0.4, 0.8, 0.6})
	scratch := make([]int32, 3)

	first := selectTopK(view, 2, scratch)
	assert.Equal(t, []int32{1, 2}, first)

	// A second pass over the same scratch must produce the same result.
	second := selectTopK(view, 2, scratch)
	assert.Equal(t, []int32{1, 2}, second, "selection should not depend on scratch contents")
}
