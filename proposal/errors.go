package proposal

import "github.com/pkg/errors"

// Sentinel errors returned by proposal operations. Callers can match them
// with errors.Is after unwrapping.
var (
	// ErrShapeMismatch indicates an input or output buffer whose row count
	// disagrees with the anchor grid.
	ErrShapeMismatch = errors.New("shape does not match anchor count")

	// ErrIndexOutOfRange indicates a gather index outside [0, N).
	ErrIndexOutOfRange = errors.New("gather index out of range")

	// ErrDType indicates a tensor whose element type is not float32.
	ErrDType = errors.New("tensor element type must be float32")
)
