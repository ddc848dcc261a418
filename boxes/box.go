// Package boxes - axis-aligned bounding boxes in normalized image coordinates.
package boxes

import (
	"fmt"

	"github.com/chewxy/math32"
)

// RowSize is the number of float32 values per box row in flat layouts.
const RowSize = 4

// Box represents a corner-form box with normalized coordinates [0, 1].
// Rows are ordered (y1, x1, y2, x2), matching the anchor layout produced
// by region proposal networks.
type Box struct {
	Y1, X1, Y2, X2 float32
}

// Height returns the vertical extent of the box.
func (b Box) Height() float32 {
	return b.Y2 - b.Y1
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float32 {
	return b.X2 - b.X1
}

// Area returns the area of the box. Inverted boxes yield a non-positive
// value.
func (b Box) Area() float32 {
	return b.Height() * b.Width()
}

// Empty reports whether the box has no usable extent. A box is empty when
// its area is not strictly positive or any coordinate is NaN or infinite.
func (b Box) Empty() bool {
	if isBad(b.Y1) || isBad(b.X1) || isBad(b.Y2) || isBad(b.X2) {
		return true
	}
	return b.Y2 <= b.Y1 || b.X2 <= b.X1
}

// Clip clamps every coordinate into [lo, hi] independently per axis.
// Clipping is idempotent: clipping an already clipped box is a no-op.
func (b Box) Clip(lo, hi float32) Box {
	return Box{
		Y1: clamp(b.Y1, lo, hi),
		X1: clamp(b.X1, lo, hi),
		Y2: clamp(b.Y2, lo, hi),
		X2: clamp(b.X2, lo, hi),
	}
}

func (b Box) String() string {
	return fmt.Sprintf("(%f, %f)-(%f, %f)", b.Y1, b.X1, b.Y2, b.X2)
}

// FromRow reads a box from the first four values of row.
func FromRow(row []float32) Box {
	return Box{Y1: row[0], X1: row[1], Y2: row[2], X2: row[3]}
}

// PutRow writes the box into the first four values of row.
func (b Box) PutRow(row []float32) {
	row[0] = b.Y1
	row[1] = b.X1
	row[2] = b.Y2
	row[3] = b.X2
}

// FromRows converts a flat (n, 4) row-major buffer into boxes. The buffer
// length must be a multiple of RowSize.
func FromRows(rows []float32) []Box {
	out := make([]Box, 0, len(rows)/RowSize)
	for i := 0; i+RowSize <= len(rows); i += RowSize {
		out = append(out, FromRow(rows[i:i+RowSize]))
	}
	return out
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isBad(v float32) bool {
	return math32.IsNaN(v) || math32.IsInf(v, 0)
}
