// Package inference - ONNX Runtime head adapters.
package inference

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-rpn/boxes"
	"github.com/nvr-ai/go-rpn/proposal"
)

// Head binds a proposal layer to ONNX Runtime session outputs. It is a pure
// adapter: tensor and session ownership stays with the caller, the head only
// reads score and delta data and validates it against the layer's anchor
// count.
type Head struct {
	layer *proposal.Layer
}

// NewHead creates a head adapter over the given layer.
//
// Arguments:
//   - layer: The proposal layer to feed.
//
// Returns:
//   - The constructed head.
//   - An error if the layer is missing.
func NewHead(layer *proposal.Layer) (*Head, error) {
	if layer == nil {
		return nil, errors.New("proposal layer is required")
	}
	return &Head{layer: layer}, nil
}

// Layer returns the wrapped proposal layer.
func (h *Head) Layer() *proposal.Layer {
	return h.layer
}

// OutputShape returns the tensor shape of the head's output,
// (MaxProposals, 4). Useful for preallocating an output tensor.
func (h *Head) OutputShape() ort.Shape {
	return ort.NewShape(int64(h.layer.Params().MaxProposals), int64(boxes.RowSize))
}

// FromTensors generates proposals from session output tensors.
//
// The score tensor must hold N*2 values and the delta tensor N*4 values for
// the layer's N anchors; leading batch dimensions of one are fine since only
// the element count is validated.
//
// Arguments:
//   - scores: Score pair tensor, background then objectness per anchor.
//   - deltas: Refinement delta tensor.
//
// Returns:
//   - The flat (MaxProposals, 4) proposal buffer.
//   - An error if either tensor is missing or disagrees with the layer.
func (h *Head) FromTensors(scores, deltas *ort.Tensor[float32]) ([]float32, error) {
	if scores == nil || deltas == nil {
		return nil, errors.New("score and delta tensors are required")
	}
	return h.propose(scores.GetData(), deltas.GetData(), scores.GetShape(), deltas.GetShape())
}

// FromTensorsInto generates proposals into a caller owned output tensor of
// shape (MaxProposals, 4), typically the preallocated output of a wider
// pipeline.
func (h *Head) FromTensorsInto(out, scores, deltas *ort.Tensor[float32]) error {
	if out == nil {
		return errors.New("output tensor is required")
	}
	if scores == nil || deltas == nil {
		return errors.New("score and delta tensors are required")
	}
	return h.proposeInto(out.GetData(), scores.GetData(), deltas.GetData(),
		out.GetShape(), scores.GetShape(), deltas.GetShape())
}

func (h *Head) propose(scoreData, deltaData []float32, scoreShape, deltaShape ort.Shape) ([]float32, error) {
	if err := h.validate(scoreData, deltaData, scoreShape, deltaShape); err != nil {
		return nil, err
	}
	return h.layer.Propose(scoreData, deltaData)
}

func (h *Head) proposeInto(dst, scoreData, deltaData []float32, dstShape, scoreShape, deltaShape ort.Shape) error {
	if len(dst) != h.layer.OutputLen() {
		return errors.Wrapf(proposal.ErrShapeMismatch,
			"output tensor %v holds %d values, want %d", dstShape, len(dst), h.layer.OutputLen())
	}
	if err := h.validate(scoreData, deltaData, scoreShape, deltaShape); err != nil {
		return err
	}
	return h.layer.ProposeInto(dst, scoreData, deltaData)
}

func (h *Head) validate(scoreData, deltaData []float32, scoreShape, deltaShape ort.Shape) error {
	n := h.layer.NumAnchors()
	if want := n * proposal.ScorePairSize; len(scoreData) != want {
		return errors.Wrapf(proposal.ErrShapeMismatch,
			"score tensor %v holds %d values, want %d for %d anchors", scoreShape, len(scoreData), want, n)
	}
	if want := n * boxes.RowSize; len(deltaData) != want {
		return errors.Wrapf(proposal.ErrShapeMismatch,
			"delta tensor %v holds %d values, want %d for %d anchors", deltaShape, len(deltaData), want, n)
	}
	return nil
}
