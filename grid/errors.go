package grid

import "errors"

// Common errors
var (
	ErrInvalidShape       = errors.New("invalid block shape")
	ErrInvariantViolation = errors.New("block index invariant violated")
	ErrOverlap            = errors.New("blocks overlap")
	ErrEmpty              = errors.New("no blocks")
	ErrDegenerate         = errors.New("degenerate extent")
	ErrAxisOutOfRange     = errors.New("axis out of range")
)

// DegenerateSpan is the smallest axis extent accepted by Resample.
const DegenerateSpan = 1e-5
