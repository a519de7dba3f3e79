package grid

import "fmt"

// Builder collects raw per-block arrays into a Dataset. The first invalid
// block stops the build.
type Builder struct {
	variable string
	blocks   []*Block
	err      error
}

// NewBuilder starts a dataset for the named variable.
func NewBuilder(variable string) *Builder {
	return &Builder{variable: variable}
}

// Add validates one block and appends it. Coordinate arrays may be sample
// aligned or carry a trailing face entry.
func (b *Builder) Add(samples []float64, shape [3]int, x, y, z []float64) error {
	if b.err != nil {
		return b.err
	}
	blk, err := NewBlock(samples, shape, x, y, z)
	if err != nil {
		b.err = fmt.Errorf("block %d: %w", len(b.blocks), err)
		return b.err
	}
	b.blocks = append(b.blocks, blk)
	return nil
}

// AddFaceCentered is Add for face coordinate arrays, which must hold exactly
// one entry more than the samples along each axis.
func (b *Builder) AddFaceCentered(samples []float64, shape [3]int, x, y, z []float64) error {
	if b.err != nil {
		return b.err
	}
	for axis, c := range [3][]float64{x, y, z} {
		if len(c) != shape[axis]+1 {
			b.err = fmt.Errorf("block %d: %w: axis %d has %d faces for %d samples",
				len(b.blocks), ErrInvalidShape, axis, len(c), shape[axis])
			return b.err
		}
	}
	return b.Add(samples, shape, x, y, z)
}

// AddBlock appends an already constructed block.
func (b *Builder) AddBlock(blk *Block) {
	if b.err == nil {
		b.blocks = append(b.blocks, blk)
	}
}

// Len returns the number of blocks added so far.
func (b *Builder) Len() int {
	return len(b.blocks)
}

// Build returns the dataset, or the first error recorded by Add.
func (b *Builder) Build() (*Dataset, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewDataset(b.variable, b.blocks)
}
