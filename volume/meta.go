package volume

import (
	"math"

	"github.com/google/uuid"
)

// Kind distinguishes block volumes from resampled cubes.
type Kind string

const (
	KindBlocks Kind = "blocks"
	KindCube   Kind = "cube"
)

// Metadata is the JSON record written next to a sample blob.
type Metadata struct {
	Format   string    `json:"format"`
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	Variable string    `json:"variable"`

	// ValueMin and ValueMax are absent when no sample is finite.
	ValueMin *float64 `json:"value_min,omitempty"`
	ValueMax *float64 `json:"value_max,omitempty"`

	Mins      [3]float64  `json:"mins"`
	Maxes     [3]float64  `json:"maxes"`
	Side      int         `json:"side,omitempty"`
	NumBlocks int         `json:"num_blocks"`
	Blocks    []BlockMeta `json:"blocks"`

	BinaryFile  string   `json:"binary_file"`
	BinarySize  uint64   `json:"binary_size"`
	Filters     []string `json:"filters,omitempty"`
	Checksum    uint32   `json:"checksum"`
	RawChecksum uint32   `json:"raw_checksum"`
}

// BlockMeta describes one block and where its samples live in the blob.
type BlockMeta struct {
	Shape   [3]int    `json:"shape"`
	XValues []float64 `json:"x_values"`
	YValues []float64 `json:"y_values"`
	ZValues []float64 `json:"z_values"`

	Offset     uint64 `json:"offset"`
	Length     uint64 `json:"length"`
	FilterMask uint32 `json:"filter_mask,omitempty"`
}

// Samples returns the number of samples in the block.
func (b BlockMeta) Samples() int {
	return b.Shape[0] * b.Shape[1] * b.Shape[2]
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
