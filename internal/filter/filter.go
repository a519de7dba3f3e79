package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownFilter is returned for a filter name with no registered
	// constructor.
	ErrUnknownFilter = errors.New("filter: unknown filter")

	// ErrIncompressible is returned by Encode when the output would not be
	// smaller than the input. Pipelines treat it as "skip this filter".
	ErrIncompressible = errors.New("filter: payload did not shrink")

	// ErrChecksum is returned when a stored checksum does not match the data.
	ErrChecksum = errors.New("filter: checksum mismatch")
)

// Filter is one reversible payload transformation.
type Filter interface {
	// Name returns the filter's spec, as accepted by New.
	Name() string

	// Encode transforms raw data to its stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored data back to raw form.
	Decode(input []byte) ([]byte, error)
}

// Registry maps filter names to constructors. arg is the value after the
// colon in "name:arg", or -1 when absent.
var Registry = map[string]func(arg int) (Filter, error){
	"shuffle":    func(arg int) (Filter, error) { return NewShuffle(arg), nil },
	"lz4":        func(int) (Filter, error) { return NewLZ4(), nil },
	"deflate": func(arg int) (Filter, error) {
		f, err := NewDeflate(arg)
		if err != nil {
			return nil, err
		}
		return f, nil
	},
	"fletcher32": func(int) (Filter, error) { return NewFletcher32(), nil },
}

// New creates a filter from a spec such as "lz4" or "deflate:9".
func New(spec string) (Filter, error) {
	name, rawArg, hasArg := strings.Cut(strings.TrimSpace(spec), ":")
	constructor, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	arg := -1
	if hasArg {
		v, err := strconv.Atoi(rawArg)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("filter %s: invalid argument %q", name, rawArg)
		}
		arg = v
	}
	return constructor(arg)
}
