package volume

import "github.com/google/uuid"

// WriteOption configures Write and WriteCube.
type WriteOption func(*writeOptions)

type writeOptions struct {
	filters   []string
	indent    bool
	id        uuid.UUID
	overwrite bool
	workers   int
}

func defaultWriteOptions() *writeOptions {
	return &writeOptions{workers: 1}
}

// WithFilters sets the filter pipeline applied to every block payload, in
// encode order, e.g. WithFilters("shuffle", "lz4").
func WithFilters(specs ...string) WriteOption {
	return func(o *writeOptions) {
		o.filters = append(o.filters, specs...)
	}
}

// WithIndent pretty-prints the metadata.
func WithIndent() WriteOption {
	return func(o *writeOptions) {
		o.indent = true
	}
}

// WithID sets the volume id instead of generating one.
func WithID(id uuid.UUID) WriteOption {
	return func(o *writeOptions) {
		o.id = id
	}
}

// WithOverwrite allows replacing existing files.
func WithOverwrite() WriteOption {
	return func(o *writeOptions) {
		o.overwrite = true
	}
}

// WithWorkers sets how many blocks are encoded concurrently. Values below 1
// are ignored.
func WithWorkers(n int) WriteOption {
	return func(o *writeOptions) {
		if n >= 1 {
			o.workers = n
		}
	}
}
