package proposal

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-rpn/boxes"
)

// ProposeDense generates proposals from dense tensors.
//
// Both inputs must be float32 with exact shapes (N, 2) for scores and
// (N, 4) for deltas, where N is the layer's anchor count. The result is a
// freshly allocated (MaxProposals, 4) float32 tensor.
//
// Arguments:
//   - scores: Score pair tensor.
//   - deltas: Refinement delta tensor.
//
// Returns:
//   - The proposal tensor.
//   - An error wrapping ErrDType on a non float32 input or
//     ErrShapeMismatch on a shape disagreement.
func (l *Layer) ProposeDense(scores, deltas *tensor.Dense) (*tensor.Dense, error) {
	n := l.store.Len()

	scoreData, err := denseFloats(scores, "scores", n, ScorePairSize)
	if err != nil {
		return nil, err
	}
	deltaData, err := denseFloats(deltas, "deltas", n, boxes.RowSize)
	if err != nil {
		return nil, err
	}

	out := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(l.params.MaxProposals, boxes.RowSize),
	)
	if err := l.ProposeInto(out.Data().([]float32), scoreData, deltaData); err != nil {
		return nil, err
	}
	return out, nil
}

// denseFloats validates a (rows, cols) float32 tensor and returns its
// backing slice.
func denseFloats(t *tensor.Dense, name string, rows, cols int) ([]float32, error) {
	if t == nil {
		return nil, errors.Errorf("%s tensor is required", name)
	}
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(ErrDType, "%s tensor is %v", name, t.Dtype())
	}

	shape := t.Shape()
	if len(shape) != 2 || shape[0] != rows || shape[1] != cols {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%s tensor has shape %v, want (%d, %d)", name, shape, rows, cols)
	}

	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrDType, "%s tensor backing is %T", name, t.Data())
	}
	return data, nil
}
