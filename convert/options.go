package convert

import "github.com/robert-malhotra/blockvol/grid"

// Option configures Run.
type Option func(*options)

type options struct {
	variables []string
	prefix    string
	workers   int
	mode      grid.ExpandMode
	stride    [3]int
	cube      int
	force     bool
	dryRun    bool
	check     bool
	progress  func(variable string, done, total int)
}

func defaultOptions() *options {
	return &options{workers: 1, stride: [3]int{1, 1, 1}}
}

// WithVariables restricts the run to the named variables. By default every
// variable of the source is converted.
func WithVariables(names ...string) Option {
	return func(o *options) {
		o.variables = append(o.variables, names...)
	}
}

// WithPrefix sets the output name base. Outputs are written as
// <prefix>_<variable>; without a prefix the variable name alone is used.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithWorkers sets the number of goroutines used for expansion.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithMode sets how expanded shells are filled.
func WithMode(m grid.ExpandMode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithStride keeps every s-th sample per axis before expansion.
func WithStride(sx, sy, sz int) Option {
	return func(o *options) {
		o.stride = [3]int{sx, sy, sz}
	}
}

// WithCube additionally resamples the expanded dataset onto a side³ lattice.
func WithCube(side int) Option {
	return func(o *options) {
		o.cube = side
	}
}

// WithForce overwrites outputs that already exist instead of skipping them.
func WithForce() Option {
	return func(o *options) {
		o.force = true
	}
}

// WithDryRun reports what would be written without loading or writing.
func WithDryRun() Option {
	return func(o *options) {
		o.dryRun = true
	}
}

// WithOverlapCheck rejects sources whose blocks overlap.
func WithOverlapCheck() Option {
	return func(o *options) {
		o.check = true
	}
}

// WithProgress reports expansion progress per variable.
func WithProgress(fn func(variable string, done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}
