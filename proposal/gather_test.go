package proposal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-rpn/boxes"
)

func TestGatherRows(t *testing.T) {
	src := []float32{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}
	indices := []int32{2, 0, 2}
	dst := make([]float32, len(indices)*boxes.RowSize)

	require.NoError(t, gatherRows(dst, src, boxes.RowSize, indices, 1))

	assert.Equal(t, []float32{
		8, 9, 10, 11,
		0, 1, 2, 3,
		8, 9, 10, 11,
	}, dst, "each destination row should equal its source row, in index order")
}

func TestGatherRowsRejectsOutOfRange(t *testing.T) {
	src := make([]float32, 2*boxes.RowSize)
	dst := make([]float32, 2*boxes.RowSize)

	err := gatherRows(dst, src, boxes.RowSize, []int32{0, 2}, 1)
	require.Error(t, err, "index beyond the last row should be rejected")
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	err = gatherRows(dst, src, boxes.RowSize, []int32{-1, 0}, 1)
	require.Error(t, err, "negative index should be rejected")
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestGatherRowsParallelMatchesSequential(t *testing.T) {
	const rows = 5000

	src := make([]float32, rows*boxes.RowSize)
	for i := range src {
		src[i] = float32(i)
	}
	indices := make([]int32, rows)
	for i := range indices {
		indices[i] = int32((i * 37) % rows)
	}

	sequential := make([]float32, rows*boxes.RowSize)
	require.NoError(t, gatherRows(sequential, src, boxes.RowSize, indices, 1))

	parallel := make([]float32, rows*boxes.RowSize)
	require.NoError(t, gatherRows(parallel, src, boxes.RowSize, indices, 8))

	assert.Equal(t, sequential, parallel, "worker count must not change the result")
}

func TestGatherRowsEmpty(t *testing.T) {
	require.NoError(t, gatherRows(nil, make([]float32, 8), boxes.RowSize, nil, 1),
		"gathering nothing should succeed")
}
