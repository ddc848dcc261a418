// Package proposal - region proposal generation for two-stage detectors.
//
// The package turns dense anchor scores and refinement deltas into a small
// ranked set of non-overlapping candidate boxes: extract objectness scores,
// select the top K anchors, gather their rows, decode and clip the deltas,
// suppress overlaps, and emit a fixed-shape output grid.
package proposal

import (
	"go.uber.org/zap"

	"github.com/chewxy/math32"
)

// Defaults for layer parameters. They match the values the reference
// two-stage detector configurations use at inference time.
const (
	DefaultPreNMSMaxProposals = 6000
	DefaultMaxProposals       = 1000
	DefaultNMSIOUThreshold    = 0.7
)

// DefaultBoundingBoxStdDev is the per-component scale applied to raw
// refinement deltas (dy, dx, log dh, log dw).
var DefaultBoundingBoxStdDev = [4]float32{0.1, 0.1, 0.2, 0.2}

// Params defines the tunable configuration of a proposal layer. A Layer
// copies its Params at construction; later mutation of the source value has
// no effect.
type Params struct {
	// BoundingBoxStdDev scales each delta component before decoding.
	BoundingBoxStdDev [4]float32
	// PreNMSMaxProposals bounds how many top scoring anchors enter
	// suppression.
	PreNMSMaxProposals int
	// MaxProposals is the fixed number of output rows. Unfilled rows are
	// zeroed.
	MaxProposals int
	// NMSIOUThreshold is the overlap above which a lower ranked candidate
	// is suppressed.
	NMSIOUThreshold float32
	// NumWorkers bounds the goroutines used by the data parallel stages.
	// Zero or less means one worker per CPU core.
	NumWorkers int
}

// DefaultParams returns the standard inference configuration.
func DefaultParams() Params {
	return Params{
		BoundingBoxStdDev:  DefaultBoundingBoxStdDev,
		PreNMSMaxProposals: DefaultPreNMSMaxProposals,
		MaxProposals:       DefaultMaxProposals,
		NMSIOUThreshold:    DefaultNMSIOUThreshold,
	}
}

// Override returns a copy of p with recognized entries from settings
// applied.
//
// Recognized keys are "bounding_box_std_dev", "pre_nms_max_proposals",
// "max_proposals", "nms_iou_threshold", and "num_workers". Numeric values
// are coerced across the common int and float widths; the std dev entry
// accepts []float32, []float64, or a []any of numbers with exactly four
// elements. Unrecognized keys and values of the wrong type are ignored and
// the prior value is kept, so a partially valid map still configures the
// keys it can.
//
// Arguments:
//   - settings: Named parameter map, typically deserialized host config.
//
// Returns:
//   - The updated copy of p.
func (p Params) Override(settings map[string]any) Params {
	for key, value := range settings {
		switch key {
		case "bounding_box_std_dev":
			if vec, ok := asFloat32Vec4(value); ok {
				p.BoundingBoxStdDev = vec
			}
		case "pre_nms_max_proposals":
			if n, ok := asInt(value); ok {
				p.PreNMSMaxProposals = n
			}
		case "max_proposals":
			if n, ok := asInt(value); ok {
				p.MaxProposals = n
			}
		case "nms_iou_threshold":
			if f, ok := asFloat32(value); ok {
				p.NMSIOUThreshold = f
			}
		case "num_workers":
			if n, ok := asInt(value); ok {
				p.NumWorkers = n
			}
		}
	}
	return p
}

// sanitized returns p with malformed values clamped to safe defaults.
// Every correction is logged as a warning so a degraded configuration is
// visible without failing construction.
func (p Params) sanitized(log *zap.Logger) Params {
	if p.MaxProposals <= 0 {
		log.Warn("max_proposals must be positive, using default",
			zap.Int("value", p.MaxProposals),
			zap.Int("default", DefaultMaxProposals))
		p.MaxProposals = DefaultMaxProposals
	}
	if p.PreNMSMaxProposals <= 0 {
		log.Warn("pre_nms_max_proposals must be positive, using default",
			zap.Int("value", p.PreNMSMaxProposals),
			zap.Int("default", DefaultPreNMSMaxProposals))
		p.PreNMSMaxProposals = DefaultPreNMSMaxProposals
	}
	if bad(p.NMSIOUThreshold) || p.NMSIOUThreshold < 0 || p.NMSIOUThreshold > 1 {
		clamped := clampThreshold(p.NMSIOUThreshold)
		log.Warn("nms_iou_threshold outside [0, 1], clamping",
			zap.Float32("value", p.NMSIOUThreshold),
			zap.Float32("clamped", clamped))
		p.NMSIOUThreshold = clamped
	}
	for i, sd := range p.BoundingBoxStdDev {
		if bad(sd) || sd <= 0 {
			log.Warn("bounding_box_std_dev component must be positive, using default",
				zap.Int("component", i),
				zap.Float32("value", sd),
				zap.Float32("default", DefaultBoundingBoxStdDev[i]))
			p.BoundingBoxStdDev[i] = DefaultBoundingBoxStdDev[i]
		}
	}
	if p.NumWorkers < 0 {
		log.Warn("num_workers must not be negative, using all cores",
			zap.Int("value", p.NumWorkers))
		p.NumWorkers = 0
	}
	return p
}

func clampThreshold(v float32) float32 {
	if bad(v) {
		return DefaultNMSIOUThreshold
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func bad(v float32) bool {
	return math32.IsNaN(v) || math32.IsInf(v, 0)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat32(v any) (float32, bool) {
	switch f := v.(type) {
	case float32:
		return f, true
	case float64:
		return float32(f), true
	case int:
		return float32(f), true
	case int64:
		return float32(f), true
	default:
		return 0, false
	}
}

func asFloat32Vec4(v any) ([4]float32, bool) {
	var out [4]float32

	switch vec := v.(type) {
	case [4]float32:
		return vec, true
	case []float32:
		if len(vec) != len(out) {
			return out, false
		}
		copy(out[:], vec)
		return out, true
	case []float64:
		if len(vec) != len(out) {
			return out, false
		}
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out, true
	case []any:
		if len(vec) != len(out) {
			return out, false
		}
		for i, item := range vec {
			f, ok := asFloat32(item)
			if !ok {
				return out, false
			}
			out[i] = f
		}
		return out, true
	default:
		return out, false
	}
}
