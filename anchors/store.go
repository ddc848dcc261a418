// Package anchors - immutable anchor grids for region proposal decoding.
//
// An anchor grid is produced offline by the network's anchor generator and
// stays constant for a given input resolution. The store wraps the flat
// (N, 4) float32 buffer, validates it once, and shares it read-only across
// every proposal invocation.
package anchors

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-rpn/boxes"
)

// Store holds a validated anchor grid. The zero value is not usable; build
// stores with FromSlice or Load.
type Store struct {
	data []float32
	n    int
}

// FromSlice builds a store from a flat row-major (N, 4) buffer ordered
// (y1, x1, y2, x2) per row. The slice is retained, not copied; callers must
// not mutate it afterwards.
//
// Arguments:
//   - data: The flat anchor buffer.
//
// Returns:
//   - The validated store.
//   - An error if the buffer is empty, has a partial row, or contains a
//     non-finite value.
func FromSlice(data []float32) (*Store, error) {
	if len(data) == 0 {
		return nil, errors.New("anchor buffer is empty")
	}
	if len(data)%boxes.RowSize != 0 {
		return nil, errors.Errorf("anchor buffer holds %d values, not a multiple of %d", len(data), boxes.RowSize)
	}
	for i, v := range data {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return nil, errors.Errorf("anchor buffer has non-finite value at offset %d (row %d)", i, i/boxes.RowSize)
		}
	}

	return &Store{data: data, n: len(data) / boxes.RowSize}, nil
}

// Len returns the number of anchors N.
func (s *Store) Len() int {
	return s.n
}

// Box returns anchor i in corner form.
func (s *Store) Box(i int) boxes.Box {
	return boxes.FromRow(s.data[i*boxes.RowSize:])
}

// Data returns the backing (N, 4) buffer. The buffer is shared and must be
// treated as read-only.
func (s *Store) Data() []float32 {
	return s.data
}

// Dense returns the anchor grid as an (N, 4) float32 tensor backed by a
// copy, so tensor consumers cannot mutate the shared grid.
func (s *Store) Dense() *tensor.Dense {
	backing := make([]float32, len(s.data))
	copy(backing, s.data)
	return tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(s.n, boxes.RowSize),
		tensor.WithBacking(backing),
	)
}
