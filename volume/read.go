package volume

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/internal/alloc"
	binpkg "github.com/robert-malhotra/blockvol/internal/binary"
	"github.com/robert-malhotra/blockvol/internal/filter"
)

// ReadMetadata loads and checks dir/prefix.json without touching the blob.
func ReadMetadata(dir, prefix string) (*Metadata, error) {
	jsonName, _ := Paths(prefix)
	data, err := os.ReadFile(filepath.Join(dir, jsonName))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, jsonName, err)
	}
	if err := meta.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", jsonName, err)
	}
	return &meta, nil
}

func (m *Metadata) check() error {
	if m.Format != FormatVersion {
		return fmt.Errorf("%w: format %q, want %q", ErrFormat, m.Format, FormatVersion)
	}
	if m.Kind != KindBlocks && m.Kind != KindCube {
		return fmt.Errorf("%w: kind %q", ErrFormat, m.Kind)
	}
	if m.NumBlocks != len(m.Blocks) {
		return fmt.Errorf("%w: num_blocks %d but %d blocks listed", ErrFormat, m.NumBlocks, len(m.Blocks))
	}
	if m.Kind == KindCube && (len(m.Blocks) != 1 || m.Blocks[0].Shape != [3]int{m.Side, m.Side, m.Side}) {
		return fmt.Errorf("%w: cube of side %d is not a single %d³ block", ErrFormat, m.Side, m.Side)
	}
	for i, b := range m.Blocks {
		if err := b.check(); err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrFormat, i, err)
		}
	}
	if filepath.Base(m.BinaryFile) != m.BinaryFile || m.BinaryFile == "" {
		return fmt.Errorf("%w: binary_file %q must be a bare file name", ErrFormat, m.BinaryFile)
	}

	layout := alloc.New(0)
	layout.SetLimit(m.BinarySize)
	for i, b := range m.Blocks {
		layout.Reserve(b.Offset, b.Length, fmt.Sprintf("block %d", i))
	}
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return nil
}

// maxSamples bounds one block so its float32 payload length fits an int.
const maxSamples = math.MaxInt32 / 4

func (b BlockMeta) check() error {
	n := 1
	for axis, s := range b.Shape {
		if s < 1 {
			return fmt.Errorf("axis %d has shape %d", axis, s)
		}
		if n > maxSamples/s {
			return fmt.Errorf("shape %v holds more than %d samples", b.Shape, maxSamples)
		}
		n *= s
	}
	for axis, c := range [3][]float64{b.XValues, b.YValues, b.ZValues} {
		if s := b.Shape[axis]; len(c) != s && len(c) != s+1 {
			return fmt.Errorf("axis %d has %d coordinates for %d samples", axis, len(c), s)
		}
	}
	return nil
}

// Read loads a volume back into a dataset. Both checksums are verified and
// the filters recorded in the metadata are undone.
func Read(dir, prefix string) (*grid.Dataset, *Metadata, error) {
	meta, err := ReadMetadata(dir, prefix)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, meta.BinaryFile))
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(data)) != meta.BinarySize {
		return nil, nil, fmt.Errorf("%w: %s holds %d bytes, metadata says %d",
			ErrFormat, meta.BinaryFile, len(data), meta.BinarySize)
	}
	if !binpkg.VerifyLookup3(data, meta.Checksum) {
		return nil, nil, fmt.Errorf("%w: %s", ErrChecksum, meta.BinaryFile)
	}

	pipeline, err := filter.NewPipeline(meta.Filters)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	r := binpkg.NewReader(bytes.NewReader(data))
	bld := grid.NewBuilder(meta.Variable)
	var raw []byte
	for i, b := range meta.Blocks {
		payload, err := r.At(int64(b.Offset)).ReadBytes(int(b.Length))
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
		decoded, err := pipeline.Decode(payload, b.FilterMask)
		if err != nil {
			if errors.Is(err, filter.ErrChecksum) {
				return nil, nil, fmt.Errorf("%w: block %d: %v", ErrChecksum, i, err)
			}
			return nil, nil, fmt.Errorf("%w: block %d: %v", ErrFormat, i, err)
		}
		samples := make([]float64, b.Samples())
		if err := binpkg.DecodeFloat32(samples, decoded); err != nil {
			return nil, nil, fmt.Errorf("%w: block %d: %v", ErrFormat, i, err)
		}
		raw = append(raw, decoded...)
		if err := bld.Add(samples, b.Shape, b.XValues, b.YValues, b.ZValues); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	if !binpkg.VerifyLookup3(raw, meta.RawChecksum) {
		return nil, nil, fmt.Errorf("%w: decoded samples of %s", ErrChecksum, meta.BinaryFile)
	}

	ds, err := bld.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return ds, meta, nil
}

// ReadCube loads a volume written by WriteCube.
func ReadCube(dir, prefix string) (*grid.Cube, *Metadata, error) {
	ds, meta, err := Read(dir, prefix)
	if err != nil {
		return nil, nil, err
	}
	if meta.Kind != KindCube {
		return nil, nil, fmt.Errorf("%w: %s is %s", ErrKind, prefix, meta.Kind)
	}
	b := ds.Block(0)
	cube := &grid.Cube{Side: meta.Side, Values: b.Samples()}
	for axis := 0; axis < 3; axis++ {
		cube.Ticks[axis] = b.Coords(axis)
	}
	return cube, meta, nil
}
