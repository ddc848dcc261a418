package proposal

import "github.com/pkg/errors"

// gatherRows copies the src rows named by indices into dst, preserving
// index order, so row r of dst equals src row indices[r]. Copying is data
// parallel across workers; the result is independent of the worker count.
//
// Arguments:
//   - dst: Destination buffer of len(indices) rows.
//   - src: Source buffer of N rows.
//   - rowSize: Number of float32 values per row.
//   - indices: Source row for each destination row.
//   - workers: Worker bound for the parallel copy.
//
// Returns:
//   - An error wrapping ErrIndexOutOfRange if any index falls outside
//     [0, N). No row is copied in that case.
func gatherRows(dst, src []float32, rowSize int, indices []int32, workers int) error {
	rows := int32(len(src) / rowSize)
	for pos, idx := range indices {
		if idx < 0 || idx >= rows {
			return errors.Wrapf(ErrIndexOutOfRange,
				"index %d at position %d, have %d rows", idx, pos, rows)
		}
	}

	parallelFor(len(indices), workers, func(start, end int) {
		for r := start; r < end; r++ {
			srcOff := int(indices[r]) * rowSize
			copy(dst[r*rowSize:(r+1)*rowSize], src[srcOff:srcOff+rowSize])
		}
	})

	return nil
}
