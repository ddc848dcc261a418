package proposal

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-rpn/anchors"
	"github.com/nvr-ai/go-rpn/boxes"
)

// Stage identifies a step of the proposal pipeline, in execution order.
type Stage int

const (
	// StageScoreExtract wraps objectness extraction from score pairs.
	StageScoreExtract Stage = iota
	// StageTopK wraps top K candidate selection.
	StageTopK
	// StageGather wraps anchor and delta row gathering.
	StageGather
	// StageRefine wraps delta decoding and window clipping.
	StageRefine
	// StageSuppress wraps greedy Non-Maximum Suppression.
	StageSuppress
	// StageWriteOutput wraps the fixed shape output write.
	StageWriteOutput
)

var stageNames = [...]string{
	"score_extract",
	"topk",
	"gather",
	"refine",
	"suppress",
	"write_output",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// StageHook observes stage boundaries. It is called at the start of each
// stage and must return a function to call when the stage completes. Hooks
// run on the invoking goroutine and should be cheap.
type StageHook func(Stage) func()

// Options carries optional collaborators for a Layer.
type Options struct {
	// Logger receives configuration degrade warnings. Nil disables logging.
	Logger *zap.Logger
	// OnStage observes stage boundaries. Nil disables instrumentation.
	OnStage StageHook
}

// Layer generates region proposals from dense anchor scores and refinement
// deltas. A Layer is immutable after construction and safe for concurrent
// use; each invocation draws its scratch space from an internal pool.
type Layer struct {
	params  Params
	store   *anchors.Store
	topK    int
	onStage StageHook
	scratch sync.Pool
}

// scratchBuffers holds the per invocation working set. Sizes are fixed at
// layer construction, so pooled buffers never reallocate.
type scratchBuffers struct {
	topk    []int32
	anchors []float32
	deltas  []float32
	refined []float32
	used    []bool
	kept    []int32
}

// New creates a proposal layer over the given anchor store.
//
// Malformed parameter values are clamped to safe defaults rather than
// rejected; use NewWithOptions to receive the degrade warnings.
//
// Arguments:
//   - store: Validated anchor grid shared read-only by all invocations.
//   - params: Layer configuration, copied at construction.
//
// Returns:
//   - The constructed layer.
//   - An error if the store is missing.
func New(store *anchors.Store, params Params) (*Layer, error) {
	return NewWithOptions(store, params, Options{})
}

// NewWithOptions creates a proposal layer with optional collaborators.
func NewWithOptions(store *anchors.Store, params Params, opts Options) (*Layer, error) {
	if store == nil {
		return nil, errors.New("anchor store is required")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	params = params.sanitized(log)

	topK := params.PreNMSMaxProposals
	if n := store.Len(); topK > n {
		topK = n
	}

	l := &Layer{
		params:  params,
		store:   store,
		topK:    topK,
		onStage: opts.OnStage,
	}
	maxKeep := params.MaxProposals
	if maxKeep > topK {
		maxKeep = topK
	}
	l.scratch.New = func() any {
		return &scratchBuffers{
			topk:    make([]int32, topK),
			anchors: make([]float32, topK*boxes.RowSize),
			deltas:  make([]float32, topK*boxes.RowSize),
			refined: make([]float32, topK*boxes.RowSize),
			used:    make([]bool, topK),
			kept:    make([]int32, 0, maxKeep),
		}
	}

	return l, nil
}

// Params returns the effective configuration after sanitization.
func (l *Layer) Params() Params {
	return l.params
}

// NumAnchors returns the anchor count N the layer validates inputs against.
func (l *Layer) NumAnchors() int {
	return l.store.Len()
}

// OutputLen returns the flat length of the output buffer,
// MaxProposals rows of four values.
func (l *Layer) OutputLen() int {
	return l.params.MaxProposals * boxes.RowSize
}

// OutputShape infers the output shape from an input shape: the leading
// dimension becomes MaxProposals and trailing dimensions pass through
// unchanged.
//
// Arguments:
//   - inputShape: Shape of the incoming anchor indexed tensor.
//
// Returns:
//   - The inferred output shape. A nil or empty input yields the one
//     dimensional [MaxProposals].
func (l *Layer) OutputShape(inputShape []int) []int {
	if len(inputShape) == 0 {
		return []int{l.params.MaxProposals}
	}
	out := make([]int, len(inputShape))
	copy(out, inputShape)
	out[0] = l.params.MaxProposals
	return out
}

// Propose generates proposals into a freshly allocated output buffer.
//
// Arguments:
//   - scores: Flat (N, 2) score pairs, background then objectness.
//   - deltas: Flat (N, 4) refinement deltas (dy, dx, log dh, log dw).
//
// Returns:
//   - The flat (MaxProposals, 4) proposal buffer, zero padded past the
//     kept rows.
//   - An error wrapping ErrShapeMismatch if either input disagrees with
//     the anchor count.
func (l *Layer) Propose(scores, deltas []float32) ([]float32, error) {
	out := make([]float32, l.OutputLen())
	if err := l.ProposeInto(out, scores, deltas); err != nil {
		return nil, err
	}
	return out, nil
}

// ProposeInto generates proposals into a caller owned output buffer of
// exactly OutputLen values. Inputs are never mutated and the call is safe
// for concurrent use with distinct destinations.
func (l *Layer) ProposeInto(dst, scores, deltas []float32) error {
	n := l.store.Len()
	if len(scores) != n*ScorePairSize {
		return errors.Wrapf(ErrShapeMismatch,
			"score buffer holds %d values, want %d for %d anchors", len(scores), n*ScorePairSize, n)
	}
	if len(deltas) != n*boxes.RowSize {
		return errors.Wrapf(ErrShapeMismatch,
			"delta buffer holds %d values, want %d for %d anchors", len(deltas), n*boxes.RowSize, n)
	}
	if len(dst) != l.OutputLen() {
		return errors.Wrapf(ErrShapeMismatch,
			"output buffer holds %d values, want %d", len(dst), l.OutputLen())
	}

	stop := l.stageStart(StageScoreExtract)
	view, err := ObjectScores(scores)
	stop()
	if err != nil {
		return err
	}

	sb := l.scratch.Get().(*scratchBuffers)
	defer l.scratch.Put(sb)

	workers := l.params.NumWorkers

	stop = l.stageStart(StageTopK)
	idx := selectTopK(view, l.topK, sb.topk)
	stop()

	rowLen := len(idx) * boxes.RowSize

	stop = l.stageStart(StageGather)
	err = gatherRows(sb.anchors[:rowLen], l.store.Data(), boxes.RowSize, idx, workers)
	if err == nil {
		err = gatherRows(sb.deltas[:rowLen], deltas, boxes.RowSize, idx, workers)
	}
	stop()
	if err != nil {
		return err
	}

	stop = l.stageStart(StageRefine)
	refineRows(sb.refined[:rowLen], sb.anchors[:rowLen], sb.deltas[:rowLen], l.params.BoundingBoxStdDev, workers)
	stop()

	stop = l.stageStart(StageSuppress)
	kept := suppress(sb.refined[:rowLen], l.params.NMSIOUThreshold, l.params.MaxProposals, sb.used, sb.kept[:0])
	stop()

	stop = l.stageStart(StageWriteOutput)
	writeProposals(dst, sb.refined[:rowLen], kept)
	stop()

	return nil
}

var noopStop = func() {}

func (l *Layer) stageStart(s Stage) func() {
	if l.onStage == nil {
		return noopStop
	}
	if stop := l.onStage(s); stop != nil {
		return stop
	}
	return noopStop
}
