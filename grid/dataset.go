package grid

import (
	"context"
	"fmt"
	"math"
)

// Dataset is the finalized set of blocks of one variable in one snapshot.
type Dataset struct {
	variable string
	blocks   []*Block
	bounds   Box
	lo, hi   float64
}

// NewDataset groups blocks under a variable name.
func NewDataset(variable string, blocks []*Block) (*Dataset, error) {
	if len(blocks) == 0 {
		return nil, ErrEmpty
	}
	ds := &Dataset{
		variable: variable,
		blocks:   blocks,
		bounds:   blocks[0].Bounds(),
		lo:       math.Inf(1),
		hi:       math.Inf(-1),
	}
	for i, b := range blocks {
		if b == nil {
			return nil, fmt.Errorf("%w: block %d is nil", ErrInvalidShape, i)
		}
		ds.bounds = ds.bounds.Union(b.Bounds())
		lo, hi := b.Range()
		ds.lo = math.Min(ds.lo, lo)
		ds.hi = math.Max(ds.hi, hi)
	}
	return ds, nil
}

// Variable returns the name of the sampled quantity.
func (ds *Dataset) Variable() string {
	return ds.variable
}

// Len returns the number of blocks.
func (ds *Dataset) Len() int {
	return len(ds.blocks)
}

// Block returns block i.
func (ds *Dataset) Block(i int) *Block {
	return ds.blocks[i]
}

// Blocks returns the blocks in order.
func (ds *Dataset) Blocks() []*Block {
	return append([]*Block(nil), ds.blocks...)
}

// Bounds returns the union of all block bounds.
func (ds *Dataset) Bounds() Box {
	return ds.bounds
}

// Range returns the smallest and largest sample over all blocks.
func (ds *Dataset) Range() (lo, hi float64) {
	return ds.lo, ds.hi
}

// CoordRange returns the smallest and largest coordinate of the given axis
// over all blocks, including trailing face entries.
func (ds *Dataset) CoordRange(axis int) (lo, hi float64, err error) {
	if axis < 0 || axis > 2 {
		return 0, 0, fmt.Errorf("%w: %d", ErrAxisOutOfRange, axis)
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, b := range ds.blocks {
		c := b.coords[axis]
		lo = math.Min(lo, c[0])
		hi = math.Max(hi, c[len(c)-1])
	}
	return lo, hi, nil
}

// Index builds a block index over the dataset.
func (ds *Dataset) Index(opts ...IndexOption) (*Index, error) {
	return NewIndex(ds.blocks, opts...)
}

// Expand indexes the dataset and expands every block.
func (ds *Dataset) Expand(ctx context.Context, opts ...ExpandOption) (*Dataset, error) {
	o := defaultExpandOptions()
	for _, opt := range opts {
		opt(o)
	}
	idx, err := ds.Index(o.index...)
	if err != nil {
		return nil, fmt.Errorf("indexing %q: %w", ds.variable, err)
	}
	blocks, err := ExpandAll(ctx, idx, opts...)
	if err != nil {
		return nil, err
	}
	return NewDataset(ds.variable, blocks)
}

// WalkFunc is called for each block during Walk. Return nil to continue,
// or an error to stop.
type WalkFunc func(i int, b *Block) error

// Walk calls fn for every block in order.
func (ds *Dataset) Walk(fn WalkFunc) error {
	for i, b := range ds.blocks {
		if err := fn(i, b); err != nil {
			return err
		}
	}
	return nil
}

// Stride keeps every s-th sample and coordinate along each axis, starting
// with the first. Face-centered blocks keep their upper face.
func (ds *Dataset) Stride(sx, sy, sz int) (*Dataset, error) {
	step := [3]int{sx, sy, sz}
	for axis, s := range step {
		if s < 1 {
			return nil, fmt.Errorf("%w: stride %d on axis %d", ErrInvalidShape, s, axis)
		}
	}
	blocks := make([]*Block, len(ds.blocks))
	for i, b := range ds.blocks {
		blocks[i] = b.stride(step)
	}
	return NewDataset(ds.variable, blocks)
}

func (b *Block) stride(step [3]int) *Block {
	var shape [3]int
	var coords [3][]float64
	for axis := 0; axis < 3; axis++ {
		shape[axis] = (b.shape[axis] + step[axis] - 1) / step[axis]
		src := b.coords[axis]
		c := make([]float64, 0, shape[axis]+1)
		for i := 0; i < b.shape[axis]; i += step[axis] {
			c = append(c, src[i])
		}
		// the upper face survives so the block still reaches its neighbours
		if len(src) == b.shape[axis]+1 {
			c = append(c, src[len(src)-1])
		}
		coords[axis] = c
	}

	samples := make([]float64, 0, shape[0]*shape[1]*shape[2])
	for i := 0; i < b.shape[0]; i += step[0] {
		for j := 0; j < b.shape[1]; j += step[1] {
			for k := 0; k < b.shape[2]; k += step[2] {
				samples = append(samples, b.At(i, j, k))
			}
		}
	}
	return newBlock(samples, shape, coords)
}

// Cube is a regular side×side×side resampling of a dataset.
type Cube struct {
	Side   int
	Ticks  [3][]float64 // lattice coordinates per axis
	Values []float64    // C order
}

// At returns the value at lattice position (i, j, k).
func (c *Cube) At(i, j, k int) float64 {
	return c.Values[(i*c.Side+j)*c.Side+k]
}

// Resample evaluates the dataset on a regular lattice of side points per
// axis spanning the dataset bounds: tick i of an axis sits at
// min + (max-min)/side*i. Every lattice point is resolved with q.
func (ds *Dataset) Resample(ctx context.Context, side int, q Query, opts ...IndexOption) (*Cube, error) {
	if side < 1 {
		return nil, fmt.Errorf("%w: side %d", ErrInvalidShape, side)
	}
	cube := &Cube{Side: side, Values: make([]float64, side*side*side)}
	size := ds.bounds.Size()
	for axis := 0; axis < 3; axis++ {
		if !(size[axis] > DegenerateSpan) {
			return nil, fmt.Errorf("%w: axis %d spans %g", ErrDegenerate, axis, size[axis])
		}
		step := size[axis] / float64(side)
		ticks := make([]float64, side)
		for i := range ticks {
			ticks[i] = ds.bounds.Min[axis] + step*float64(i)
		}
		cube.Ticks[axis] = ticks
	}

	idx, err := ds.Index(opts...)
	if err != nil {
		return nil, err
	}
	cur := idx.NewCursor()
	x, y, z := cube.Ticks[0], cube.Ticks[1], cube.Ticks[2]
	n := 0
	for i := 0; i < side; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := 0; j < side; j++ {
			for k := 0; k < side; k++ {
				cube.Values[n] = cur.Lookup(Point{x[i], y[j], z[k]}, q)
				n++
			}
		}
	}
	return cube, nil
}
