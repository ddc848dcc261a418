package proposal

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-rpn/boxes"
)

// logDeltaClamp bounds scaled log size deltas before exponentiation, so a
// wild regression output cannot overflow float32. The value is log(1000/16),
// the clip used by the reference Faster R-CNN implementations.
const logDeltaClamp float32 = 4.135166556742356

// refineRows decodes refinement deltas against their anchors and clips the
// results to the normalized window.
//
// Each row applies the center form transform: the anchor center shifts by
// (dy, dx) fractions of its extent and the extent scales by exp(log dh),
// exp(log dw), after scaling all four components by stdDev. Decoded corners
// are clamped into [0, 1] per axis and NaN coordinates collapse to 0, so no
// non-finite value survives into suppression or the output. Row order is
// preserved and a zero delta reproduces its anchor.
//
// Arguments:
//   - dst: Destination (K, 4) buffer.
//   - anchorRows: Gathered (K, 4) anchor buffer.
//   - deltaRows: Gathered (K, 4) delta buffer.
//   - stdDev: Per component delta scales.
//   - workers: Worker bound for the parallel decode.
func refineRows(dst, anchorRows, deltaRows []float32, stdDev [4]float32, workers int) {
	rows := len(dst) / boxes.RowSize

	parallelFor(rows, workers, func(start, end int) {
		for r := start; r < end; r++ {
			off := r * boxes.RowSize

			ay1 := anchorRows[off]
			ax1 := anchorRows[off+1]
			ay2 := anchorRows[off+2]
			ax2 := anchorRows[off+3]

			ah := ay2 - ay1
			aw := ax2 - ax1
			acy := ay1 + 0.5*ah
			acx := ax1 + 0.5*aw

			dy := deltaRows[off] * stdDev[0]
			dx := deltaRows[off+1] * stdDev[1]
			dh := clampLogDelta(deltaRows[off+2] * stdDev[2])
			dw := clampLogDelta(deltaRows[off+3] * stdDev[3])

			cy := acy + dy*ah
			cx := acx + dx*aw
			h := ah * math32.Exp(dh)
			w := aw * math32.Exp(dw)

			dst[off] = clampCoord(cy - 0.5*h)
			dst[off+1] = clampCoord(cx - 0.5*w)
			dst[off+2] = clampCoord(cy + 0.5*h)
			dst[off+3] = clampCoord(cx + 0.5*w)
		}
	})
}

// clampLogDelta bounds a log space delta to [-logDeltaClamp, logDeltaClamp].
// NaN maps to 0 so the anchor extent passes through unchanged.
func clampLogDelta(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	if v > logDeltaClamp {
		return logDeltaClamp
	}
	if v < -logDeltaClamp {
		return -logDeltaClamp
	}
	return v
}

// clampCoord hard clamps a coordinate into [0, 1]. NaN maps to 0.
func clampCoord(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
