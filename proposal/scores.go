package proposal

import "github.com/pkg/errors"

// ScorePairSize is the number of float32 values per anchor score entry:
// background first, objectness second.
const ScorePairSize = 2

// ScoreView exposes the objectness component of interleaved
// (background, objectness) score pairs without copying.
type ScoreView struct {
	pairs []float32
}

// ObjectScores validates an interleaved score buffer and returns a strided
// view over its objectness components.
//
// Arguments:
//   - pairs: Flat (N, 2) score buffer.
//
// Returns:
//   - The score view.
//   - An error wrapping ErrShapeMismatch if the buffer has a dangling
//     half pair.
func ObjectScores(pairs []float32) (ScoreView, error) {
	if len(pairs)%ScorePairSize != 0 {
		return ScoreView{}, errors.Wrapf(ErrShapeMismatch,
			"score buffer holds %d values, not a multiple of %d", len(pairs), ScorePairSize)
	}
	return ScoreView{pairs: pairs}, nil
}

// Len returns the number of score pairs.
func (v ScoreView) Len() int {
	return len(v.pairs) / ScorePairSize
}

// At returns the objectness score of anchor i.
func (v ScoreView) At(i int) float32 {
	return v.pairs[i*ScorePairSize+1]
}
