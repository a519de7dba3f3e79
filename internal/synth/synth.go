// Package synth generates deterministic block-structured datasets that look
// like adaptive-mesh output: a root box split into top-level blocks, some of
// them refined into eight children at twice the resolution.
package synth

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"

	"github.com/robert-malhotra/blockvol/grid"
)

// ErrUnknownVariable is returned by Load for a name with no field.
var ErrUnknownVariable = errors.New("unknown variable")

// Field is an analytic scalar field.
type Field func(p grid.Point) float64

// Affine returns a*x + b*y + c*z + d. Trilinear interpolation reproduces it
// exactly.
func Affine(a, b, c, d float64) Field {
	return func(p grid.Point) float64 {
		return a*p[0] + b*p[1] + c*p[2] + d
	}
}

// Radial returns a Gaussian bump of the given width around center.
func Radial(center grid.Point, width float64) Field {
	return func(p grid.Point) float64 {
		var r2 float64
		for i := range p {
			d := p[i] - center[i]
			r2 += d * d
		}
		return math.Exp(-r2 / (width * width))
	}
}

// Config describes a layout.
type Config struct {
	Bounds grid.Box // root box
	Root   int      // top-level blocks per axis
	Cells  int      // cells per block per axis

	// Refine is the probability that a top-level block is split into eight
	// children. Seed makes the choice reproducible.
	Refine float64
	Seed   int64

	// Stretch is the ratio between successive cell widths inside a block.
	// 1 gives uniform spacing. Block faces are never moved.
	Stretch float64

	Fields map[string]Field
}

// Default returns a small two-variable layout over the unit cube.
func Default() Config {
	return Config{
		Bounds:  grid.Box{Max: grid.Point{1, 1, 1}},
		Root:    2,
		Cells:   4,
		Refine:  0.5,
		Seed:    1,
		Stretch: 1,
		Fields: map[string]Field{
			"density":     Radial(grid.Point{0.5, 0.5, 0.5}, 0.3),
			"temperature": Affine(2, -1, 0.5, 3),
		},
	}
}

func (c Config) validate() error {
	if c.Root < 1 || c.Cells < 1 {
		return fmt.Errorf("%w: root %d, cells %d", grid.ErrInvalidShape, c.Root, c.Cells)
	}
	for axis := 0; axis < 3; axis++ {
		if !(c.Bounds.Max[axis] > c.Bounds.Min[axis]) {
			return fmt.Errorf("%w: axis %d spans [%g, %g]",
				grid.ErrDegenerate, axis, c.Bounds.Min[axis], c.Bounds.Max[axis])
		}
	}
	if c.Stretch <= 0 {
		return fmt.Errorf("stretch must be positive, got %g", c.Stretch)
	}
	if len(c.Fields) == 0 {
		return errors.New("no fields")
	}
	return nil
}

// Source serves every field of a Config as a named variable.
type Source struct {
	cfg    Config
	layout []grid.Box
}

// New validates cfg and lays out its blocks.
func New(cfg Config) (*Source, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg, layout: Layout(cfg)}, nil
}

// Variables returns the field names in sorted order.
func (s *Source) Variables() ([]string, error) {
	return slices.Sorted(maps.Keys(s.cfg.Fields)), nil
}

// Blocks returns the number of blocks in the layout.
func (s *Source) Blocks() int {
	return len(s.layout)
}

// Load samples the named field on every block.
func (s *Source) Load(ctx context.Context, variable string) (*grid.Dataset, error) {
	f, ok := s.cfg.Fields[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	bld := grid.NewBuilder(variable)
	for _, box := range s.layout {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var coords [3][]float64
		for axis := 0; axis < 3; axis++ {
			coords[axis] = faces(box.Min[axis], box.Max[axis], s.cfg.Cells, s.cfg.Stretch)
		}
		n := s.cfg.Cells
		samples := make([]float64, 0, n*n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				for k := 0; k < n; k++ {
					samples = append(samples, f(grid.Point{coords[0][i], coords[1][j], coords[2][k]}))
				}
			}
		}
		if err := bld.AddFaceCentered(samples, [3]int{n, n, n}, coords[0], coords[1], coords[2]); err != nil {
			return nil, err
		}
	}
	return bld.Build()
}

// Layout returns the block boxes of cfg in generation order: top-level
// blocks in C order, each refined block replaced by its eight children.
func Layout(cfg Config) []grid.Box {
	rng := rand.New(rand.NewSource(cfg.Seed))
	size := cfg.Bounds.Size()
	var boxes []grid.Box
	for i := 0; i < cfg.Root; i++ {
		for j := 0; j < cfg.Root; j++ {
			for k := 0; k < cfg.Root; k++ {
				var box grid.Box
				for axis, at := range [3]int{i, j, k} {
					box.Min[axis] = split(cfg.Bounds.Min[axis], size[axis], at, cfg.Root)
					box.Max[axis] = split(cfg.Bounds.Min[axis], size[axis], at+1, cfg.Root)
				}
				if rng.Float64() < cfg.Refine {
					boxes = append(boxes, octants(box)...)
				} else {
					boxes = append(boxes, box)
				}
			}
		}
	}
	return boxes
}

// split returns the at-th of n equal divisions of [lo, lo+size], pinning the
// last one to the exact upper bound.
func split(lo, size float64, at, n int) float64 {
	if at == n {
		return lo + size
	}
	return lo + size*float64(at)/float64(n)
}

func octants(b grid.Box) []grid.Box {
	var mid grid.Point
	for axis := range mid {
		mid[axis] = (b.Min[axis] + b.Max[axis]) / 2
	}
	out := make([]grid.Box, 0, 8)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				var c grid.Box
				for axis, hi := range [3]int{i, j, k} {
					if hi == 0 {
						c.Min[axis], c.Max[axis] = b.Min[axis], mid[axis]
					} else {
						c.Min[axis], c.Max[axis] = mid[axis], b.Max[axis]
					}
				}
				out = append(out, c)
			}
		}
	}
	return out
}

// faces returns cells+1 face positions spanning [lo, hi] whose widths grow
// by ratio from one cell to the next.
func faces(lo, hi float64, cells int, ratio float64) []float64 {
	c := make([]float64, cells+1)
	var total, w float64 = 0, 1
	for i := 0; i < cells; i++ {
		total += w
		w *= ratio
	}
	var at float64
	w = 1
	for i := 0; i < cells; i++ {
		c[i] = lo + (hi-lo)*at/total
		at += w
		w *= ratio
	}
	c[cells] = hi
	return c
}
