package grid

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/blockvol/internal/trilinear"
)

// Block is one axis-aligned block of samples on its own non-uniform grid.
// A Block is immutable once constructed.
type Block struct {
	samples []float64
	shape   [3]int
	coords  [3][]float64
	mins    Point
	maxes   Point
}

// NewBlock validates and copies the given arrays into a new Block.
//
// samples is C-ordered with the given shape. Each coordinate array must hold
// either shape[axis] or shape[axis]+1 entries and be strictly increasing,
// except that trailing steps may have zero width.
func NewBlock(samples []float64, shape [3]int, x, y, z []float64) (*Block, error) {
	if err := validate(samples, shape, [3][]float64{x, y, z}); err != nil {
		return nil, err
	}
	return newBlock(
		append([]float64(nil), samples...),
		shape,
		[3][]float64{
			append([]float64(nil), x...),
			append([]float64(nil), y...),
			append([]float64(nil), z...),
		},
	), nil
}

// newBlock takes ownership of already validated arrays.
func newBlock(samples []float64, shape [3]int, coords [3][]float64) *Block {
	b := &Block{
		samples: samples,
		shape:   shape,
		coords:  coords,
	}
	for axis := 0; axis < 3; axis++ {
		b.mins[axis] = coords[axis][0]
		b.maxes[axis] = coords[axis][shape[axis]-1]
	}
	return b
}

func validate(samples []float64, shape [3]int, coords [3][]float64) error {
	total := 1
	for axis, n := range shape {
		if n < 1 {
			return fmt.Errorf("%w: axis %d has %d samples", ErrInvalidShape, axis, n)
		}
		total *= n
	}
	if len(samples) != total {
		return fmt.Errorf("%w: %d samples for shape %v", ErrInvalidShape, len(samples), shape)
	}
	for axis, c := range coords {
		if err := validateAxis(axis, c, shape[axis]); err != nil {
			return err
		}
	}
	return nil
}

func validateAxis(axis int, c []float64, n int) error {
	if len(c) != n && len(c) != n+1 {
		return fmt.Errorf("%w: axis %d has %d coordinates for %d samples", ErrInvalidShape, axis, len(c), n)
	}
	flat := false
	for i := 1; i < len(c); i++ {
		step := c[i] - c[i-1]
		switch {
		case step > 0 && !flat:
		case step == 0:
			flat = true
		default:
			return fmt.Errorf("%w: axis %d coordinates not increasing at index %d (%g after %g)",
				ErrInvalidShape, axis, i, c[i], c[i-1])
		}
	}
	if len(c) > 0 && math.IsNaN(c[0]) {
		return fmt.Errorf("%w: axis %d starts with NaN", ErrInvalidShape, axis)
	}
	return nil
}

// Shape returns the number of samples along each axis.
func (b *Block) Shape() [3]int {
	return b.shape
}

// Len returns the total number of samples.
func (b *Block) Len() int {
	return len(b.samples)
}

// At returns the sample at (i, j, k).
func (b *Block) At(i, j, k int) float64 {
	return b.samples[b.offset(i, j, k)]
}

func (b *Block) offset(i, j, k int) int {
	return (i*b.shape[1]+j)*b.shape[2] + k
}

// Samples returns a copy of the C-ordered sample array.
func (b *Block) Samples() []float64 {
	return append([]float64(nil), b.samples...)
}

// Coords returns a copy of the coordinate array of the given axis.
func (b *Block) Coords(axis int) []float64 {
	return append([]float64(nil), b.coords[axis]...)
}

// FaceCentered reports whether the coordinate arrays carry the trailing
// upper face of the last cell.
func (b *Block) FaceCentered() bool {
	return len(b.coords[0]) == b.shape[0]+1
}

// Bounds returns the half-open region the block answers for.
func (b *Block) Bounds() Box {
	return Box{Min: b.mins, Max: b.maxes}
}

// Range returns the smallest and largest sample, ignoring NaN.
func (b *Block) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range b.samples {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Contains reports whether p lies in [mins, maxes) on every axis.
func (b *Block) Contains(p Point) bool {
	// hot path: one axis at a time, NaN never contained
	if !(p[0] >= b.mins[0] && p[0] < b.maxes[0]) {
		return false
	}
	if !(p[1] >= b.mins[1] && p[1] < b.maxes[1]) {
		return false
	}
	return p[2] >= b.mins[2] && p[2] < b.maxes[2]
}

// Interpolate returns the trilinear interpolant of the block's samples at p.
// ok is false when p falls outside the region where a full 2×2×2 stencil
// exists; that is not the same as a zero value.
func (b *Block) Interpolate(p Point) (v float64, ok bool) {
	var idx [3]int
	var off [3]float64
	for axis := 0; axis < 3; axis++ {
		n := b.shape[axis]
		c := b.coords[axis][:n]
		ix := bisectRight(c, p[axis])
		if ix == 0 || ix == n {
			return 0, false
		}
		idx[axis] = ix - 1
		off[axis] = (p[axis] - c[ix-1]) / (c[ix] - c[ix-1])
	}

	var corners [trilinear.Corners]float64
	ny, nz := b.shape[1], b.shape[2]
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			base := ((idx[0]+i)*ny+idx[1]+j)*nz + idx[2]
			corners[i*4+j*2] = b.samples[base]
			corners[i*4+j*2+1] = b.samples[base+1]
		}
	}
	return trilinear.Interpolate(&corners, off), true
}

// bisectRight returns the insertion index of x in sorted c, after any
// entries equal to x.
func bisectRight(c []float64, x float64) int {
	lo, hi := 0, len(c)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if x < c[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// LowerBorder calls fn for every sample on the three minimum faces of the
// block (k=0, then j=0, then i=0). Samples on shared edges are visited more
// than once.
func (b *Block) LowerBorder(fn func(p Point, v float64)) {
	nx, ny, nz := b.shape[0], b.shape[1], b.shape[2]
	x, y, z := b.coords[0], b.coords[1], b.coords[2]
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			fn(Point{x[i], y[j], z[0]}, b.At(i, j, 0))
		}
	}
	for i := 0; i < nx; i++ {
		for k := 0; k < nz; k++ {
			fn(Point{x[i], y[0], z[k]}, b.At(i, 0, k))
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			fn(Point{x[0], y[j], z[k]}, b.At(0, j, k))
		}
	}
}

// Center returns the position halfway between the block's mins and maxes.
func (b *Block) Center() Point {
	var p Point
	for axis := 0; axis < 3; axis++ {
		p[axis] = b.mins[axis] + (b.maxes[axis]-b.mins[axis])/2
	}
	return p
}

// String returns a short description of the block.
func (b *Block) String() string {
	return fmt.Sprintf("Block%v[%v, %v)", b.shape, b.mins, b.maxes)
}
