package proposal

// selectTopK returns the indices of the k highest objectness scores in
// descending score order. Equal scores rank by ascending anchor index, so
// both membership and order are deterministic across runs and platforms.
//
// Selection runs in O(N log K) over a bounded min heap instead of sorting
// the full score set. The heap slice must have capacity for k entries; it
// is resliced and returned as the result.
//
// Arguments:
//   - scores: View over the objectness scores.
//   - k: Number of anchors to select. Clamped to [0, N].
//   - heap: Scratch index slice reused across invocations.
//
// Returns:
//   - The selected indices, best first.
func selectTopK(scores ScoreView, k int, heap []int32) []int32 {
	n := scores.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return heap[:0]
	}

	h := topkHeap{idx: heap[:k], scores: scores}
	for i := range h.idx {
		h.idx[i] = int32(i)
	}
	for i := k/2 - 1; i >= 0; i-- {
		h.siftDown(i, k)
	}

	// The root is the worst ranked member. Replace it whenever a strictly
	// better candidate appears. Ties never displace a member because the
	// member always carries the lower index.
	for i := k; i < n; i++ {
		if h.less(h.idx[0], int32(i)) {
			h.idx[0] = int32(i)
			h.siftDown(0, k)
		}
	}

	// Heapsort in place: each extracted minimum moves to the tail, leaving
	// the slice ordered best first.
	for end := k - 1; end > 0; end-- {
		h.idx[0], h.idx[end] = h.idx[end], h.idx[0]
		h.siftDown(0, end)
	}

	return h.idx
}

// topkHeap is a min heap of anchor indices ordered by (score, index). The
// minimum is the lowest score; among equal scores, the higher index.
type topkHeap struct {
	idx    []int32
	scores ScoreView
}

func (h topkHeap) less(a, b int32) bool {
	sa, sb := h.scores.At(int(a)), h.scores.At(int(b))
	if sa != sb {
		return sa < sb
	}
	return a > b
}

func (h topkHeap) siftDown(root, end int) {
	for {
		child := 2*root + 1
		if child >= end {
			return
		}
		if child+1 < end && h.less(h.idx[child+1], h.idx[child]) {
			child++
		}
		if !h.less(h.idx[child], h.idx[root]) {
			return
		}
		h.idx[root], h.idx[child] = h.idx[child], h.idx[root]
		root = child
	}
}
