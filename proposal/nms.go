package proposal

import "github.com/nvr-ai/go-rpn/boxes"

// suppress performs greedy Non-Maximum Suppression over refined rows.
//
// Rows must arrive sorted by descending score. The scan keeps the highest
// ranked unsuppressed row, marks every remaining row whose IoU with it
// exceeds iouThreshold, and repeats until maxKeep rows are kept or the
// candidates run out. Degenerate rows score IoU 0 against everything, so
// they neither suppress nor get suppressed. Suppression order is load
// bearing and the scan is strictly sequential.
//
// Arguments:
//   - rows: Refined (K, 4) candidate buffer in rank order.
//   - iouThreshold: Overlap above which a lower ranked row is suppressed.
//   - maxKeep: Cap on the number of kept rows.
//   - used: Scratch suppression marks, len K. Reset on entry.
//   - kept: Scratch result slice, appended up to maxKeep entries.
//
// Returns:
//   - Positions of the kept rows in rank order.
func suppress(rows []float32, iouThreshold float32, maxKeep int, used []bool, kept []int32) []int32 {
	n := len(rows) / boxes.RowSize
	if n == 0 || maxKeep <= 0 {
		return kept
	}

	for i := range used[:n] {
		used[i] = false
	}

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := boxes.FromRow(rows[i*boxes.RowSize:])
		kept = append(kept, int32(i))
		used[i] = true

		if len(kept) == maxKeep {
			break
		}

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}

			// Suppress if IoU exceeds threshold.
			if boxes.IoU(anchor, boxes.FromRow(rows[j*boxes.RowSize:])) > iouThreshold {
				used[j] = true
			}
		}
	}

	return kept
}
