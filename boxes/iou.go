package boxes

// IoU calculates the Intersection over Union between two boxes.
//
// The result is symmetric and always within [0, 1]. Pairs that do not
// overlap, and pairs where either box is degenerate, score 0 so that a
// malformed box can never suppress a valid one.
//
// Arguments:
//   - a: The first box.
//   - b: The second box.
//
// Returns:
//   - The IoU value between 0 and 1.
func IoU(a, b Box) float32 {
	if a.Empty() || b.Empty() {
		return 0
	}

	y1 := maxf(a.Y1, b.Y1)
	x1 := maxf(a.X1, b.X1)
	y2 := minf(a.Y2, b.Y2)
	x2 := minf(a.X2, b.X2)

	// Early return when the intersection is empty.
	if y2 <= y1 || x2 <= x1 {
		return 0
	}

	intersection := (y2 - y1) * (x2 - x1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
