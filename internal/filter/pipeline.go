package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline is an ordered list of filters applied to each payload.
type Pipeline struct {
	filters []Filter
}

// NewPipeline creates a pipeline from filter specs, in encode order.
func NewPipeline(specs []string) (*Pipeline, error) {
	p := &Pipeline{filters: make([]Filter, 0, len(specs))}
	for _, spec := range specs {
		f, err := New(spec)
		if err != nil {
			return nil, err
		}
		p.filters = append(p.filters, f)
	}
	if len(p.filters) > 32 {
		return nil, fmt.Errorf("filter: %d filters exceed the 32-bit mask", len(p.filters))
	}
	return p, nil
}

// Parse creates a pipeline from a comma separated spec list. An empty
// string yields an empty pipeline.
func Parse(list string) (*Pipeline, error) {
	if strings.TrimSpace(list) == "" {
		return &Pipeline{}, nil
	}
	return NewPipeline(strings.Split(list, ","))
}

// Encode applies the filters in order. Filters reporting ErrIncompressible
// are skipped and recorded in the returned mask (bit i = filter i skipped).
func (p *Pipeline) Encode(input []byte) ([]byte, uint32, error) {
	data := input
	var mask uint32
	for i, f := range p.filters {
		out, err := f.Encode(data)
		if errors.Is(err, ErrIncompressible) {
			mask |= 1 << uint(i)
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("filter %s encode: %w", f.Name(), err)
		}
		data = out
	}
	return data, mask, nil
}

// Decode applies the filter pipeline to encoded data.
// The filterMask specifies which filters to skip (bit i = skip filter i).
// Filters are applied in reverse order (last filter first).
func (p *Pipeline) Decode(input []byte, filterMask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if filterMask&(1<<uint(i)) != 0 {
			continue
		}
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s decode: %w", p.filters[i].Name(), err)
		}
	}
	return data, nil
}

// Names returns the filter specs in encode order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.filters))
	for i, f := range p.filters {
		names[i] = f.Name()
	}
	return names
}

// String returns the specs joined the way Parse accepts them.
func (p *Pipeline) String() string {
	return strings.Join(p.Names(), ",")
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
