package proposal

import "github.com/nvr-ai/go-rpn/boxes"

// writeProposals copies the kept rows into dst in rank order and zeroes
// every remaining element. Hosts reuse output buffers across invocations,
// so the tail is cleared explicitly rather than assumed empty.
//
// Arguments:
//   - dst: Destination (MaxProposals, 4) buffer.
//   - rows: Refined candidate buffer the kept positions refer to.
//   - kept: Kept row positions in rank order.
func writeProposals(dst, rows []float32, kept []int32) {
	off := 0
	for _, idx := range kept {
		src := int(idx) * boxes.RowSize
		copy(dst[off:off+boxes.RowSize], rows[src:src+boxes.RowSize])
		off += boxes.RowSize
	}

	for i := off; i < len(dst); i++ {
		dst[i] = 0
	}
}
