package grid

// IndexOption configures index construction.
type IndexOption func(*indexOptions)

type indexOptions struct {
	sentinel     float64
	haveSentinel bool
	overlapCheck bool
}

func defaultIndexOptions() *indexOptions {
	return &indexOptions{}
}

// WithSentinel sets the value returned for points outside every block when
// the query supplies no default. By default the sentinel is twice the
// largest sample of the dataset.
func WithSentinel(v float64) IndexOption {
	return func(o *indexOptions) {
		o.sentinel = v
		o.haveSentinel = true
	}
}

// WithOverlapCheck makes NewIndex reject blocks whose interiors intersect.
// Without it overlapping blocks resolve to the first match in search order.
func WithOverlapCheck() IndexOption {
	return func(o *indexOptions) {
		o.overlapCheck = true
	}
}

// ExpandMode selects how boundary samples that land inside a neighbouring
// block are resolved when the boundary cache has no exact entry.
type ExpandMode int

const (
	// SubstituteEdge keeps the block's own clamped edge value.
	SubstituteEdge ExpandMode = iota
	// InterpolateNeighbor interpolates inside the neighbouring block.
	InterpolateNeighbor
)

func (m ExpandMode) String() string {
	switch m {
	case SubstituteEdge:
		return "substitute"
	case InterpolateNeighbor:
		return "interpolate"
	default:
		return "unknown"
	}
}

// ParseExpandMode parses the names returned by ExpandMode.String.
func ParseExpandMode(s string) (ExpandMode, bool) {
	switch s {
	case "substitute":
		return SubstituteEdge, true
	case "interpolate":
		return InterpolateNeighbor, true
	}
	return SubstituteEdge, false
}

// ExpandOption configures block expansion.
type ExpandOption func(*expandOptions)

type expandOptions struct {
	mode     ExpandMode
	workers  int
	progress func(done, total int)
	stats    *Stats
	index    []IndexOption
}

func defaultExpandOptions() *expandOptions {
	return &expandOptions{
		mode:    SubstituteEdge,
		workers: 1,
	}
}

// WithMode sets the expansion mode.
func WithMode(m ExpandMode) ExpandOption {
	return func(o *expandOptions) {
		o.mode = m
	}
}

// WithWorkers sets the number of goroutines ExpandAll uses. Values below 1
// are ignored.
func WithWorkers(n int) ExpandOption {
	return func(o *expandOptions) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithProgress registers a callback invoked after each expanded block.
// Calls are serialized.
func WithProgress(fn func(done, total int)) ExpandOption {
	return func(o *expandOptions) {
		o.progress = fn
	}
}

// WithStats accumulates the query counters of every cursor used by
// ExpandAll into dst.
func WithStats(dst *Stats) ExpandOption {
	return func(o *expandOptions) {
		o.stats = dst
	}
}

// WithIndexOptions passes options to the index built by Dataset.Expand.
func WithIndexOptions(opts ...IndexOption) ExpandOption {
	return func(o *expandOptions) {
		o.index = append(o.index, opts...)
	}
}
