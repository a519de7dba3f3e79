package volume

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/internal/alloc"
	binpkg "github.com/robert-malhotra/blockvol/internal/binary"
	"github.com/robert-malhotra/blockvol/internal/filter"
)

// sampleAlign keeps every payload on a float32 boundary.
const sampleAlign = 4

// Paths returns the metadata and blob file names for prefix.
func Paths(prefix string) (jsonName, binName string) {
	return prefix + ".json", prefix + ".bin"
}

// Write stores ds as dir/prefix.json and dir/prefix.bin.
func Write(dir, prefix string, ds *grid.Dataset, opts ...WriteOption) (Entry, error) {
	lo, hi := ds.Range()
	b := ds.Bounds()
	meta := &Metadata{
		Kind:      KindBlocks,
		Variable:  ds.Variable(),
		ValueMin:  finite(lo),
		ValueMax:  finite(hi),
		Mins:      b.Min,
		Maxes:     b.Max,
		NumBlocks: ds.Len(),
	}
	return write(dir, prefix, meta, ds.Blocks(), opts)
}

// WriteCube stores a resampled cube as a single sample-aligned block whose
// coordinates are the lattice ticks.
func WriteCube(dir, prefix, variable string, cube *grid.Cube, opts ...WriteOption) (Entry, error) {
	side := cube.Side
	blk, err := grid.NewBlock(cube.Values, [3]int{side, side, side}, cube.Ticks[0], cube.Ticks[1], cube.Ticks[2])
	if err != nil {
		return Entry{}, fmt.Errorf("cube: %w", err)
	}
	lo, hi := blk.Range()
	meta := &Metadata{
		Kind:      KindCube,
		Variable:  variable,
		ValueMin:  finite(lo),
		ValueMax:  finite(hi),
		Side:      side,
		NumBlocks: 1,
	}
	for axis := 0; axis < 3; axis++ {
		meta.Mins[axis] = cube.Ticks[axis][0]
		meta.Maxes[axis] = cube.Ticks[axis][side-1]
	}
	return write(dir, prefix, meta, []*grid.Block{blk}, opts)
}

func write(dir, prefix string, meta *Metadata, blocks []*grid.Block, opts []WriteOption) (Entry, error) {
	o := defaultWriteOptions()
	for _, opt := range opts {
		opt(o)
	}
	pipeline, err := filter.NewPipeline(o.filters)
	if err != nil {
		return Entry{}, err
	}

	jsonName, binName := Paths(prefix)
	jsonPath, binPath := filepath.Join(dir, jsonName), filepath.Join(dir, binName)
	if !o.overwrite {
		for _, p := range []string{jsonPath, binPath} {
			if _, err := os.Stat(p); err == nil {
				return Entry{}, fmt.Errorf("%w: %s", ErrExists, p)
			} else if !errors.Is(err, os.ErrNotExist) {
				return Entry{}, err
			}
		}
	}

	id := o.id
	if id == uuid.Nil {
		if id, err = uuid.NewV7(); err != nil {
			id = uuid.New()
		}
	}
	meta.Format = FormatVersion
	meta.ID = id
	meta.BinaryFile = binName
	meta.Filters = pipeline.Names()

	enc, err := encodeBlocks(blocks, pipeline, o.workers)
	if err != nil {
		return Entry{}, err
	}

	layout := alloc.New(0)
	meta.Blocks = make([]BlockMeta, len(blocks))
	raw := make([]byte, 0, 4*rawLen(blocks))
	for i, b := range blocks {
		e := enc[i]
		off := layout.AllocAligned(uint64(len(e.payload)), sampleAlign, fmt.Sprintf("block %d", i))
		meta.Blocks[i] = BlockMeta{
			Shape:      b.Shape(),
			XValues:    b.Coords(0),
			YValues:    b.Coords(1),
			ZValues:    b.Coords(2),
			Offset:     off,
			Length:     uint64(len(e.payload)),
			FilterMask: e.mask,
		}
		raw = append(raw, e.raw...)
	}
	if err := layout.Validate(); err != nil {
		return Entry{}, err
	}

	if err := writeAtomic(binPath, func(f *os.File) error {
		return writeBlob(f, meta, enc)
	}); err != nil {
		return Entry{}, err
	}
	meta.RawChecksum = binpkg.Lookup3Checksum(raw)

	var doc []byte
	if o.indent {
		doc, err = json.MarshalIndent(meta, "", "  ")
	} else {
		doc, err = json.Marshal(meta)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: encoding metadata: %v", ErrFormat, err)
	}

	if err := writeFile(jsonPath, doc); err != nil {
		return Entry{}, err
	}
	return Entry{
		JSON:     jsonName,
		Binary:   binName,
		Variable: meta.Variable,
		Kind:     meta.Kind,
		ID:       meta.ID,
	}, nil
}

type encoded struct {
	raw     []byte
	payload []byte
	mask    uint32
}

func encodeBlocks(blocks []*grid.Block, pipeline *filter.Pipeline, workers int) ([]encoded, error) {
	out := make([]encoded, len(blocks))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, b := range blocks {
		g.Go(func() error {
			samples := b.Samples()
			for _, v := range samples {
				if math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
					return fmt.Errorf("%w: block %d sample %g overflows float32", ErrFormat, i, v)
				}
			}
			raw := binpkg.EncodeFloat32(samples)
			payload, mask, err := pipeline.Encode(raw)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			out[i] = encoded{raw: raw, payload: payload, mask: mask}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func rawLen(blocks []*grid.Block) int {
	n := 0
	for _, b := range blocks {
		n += b.Len()
	}
	return n
}

// writeBlob streams the payloads to f at their layout offsets, pads the
// tail to a sample boundary, and records the size and checksum of what
// landed on disk.
func writeBlob(f *os.File, meta *Metadata, enc []encoded) error {
	w := binpkg.NewWriter(binpkg.NewSeekableWriterAt(f))
	for i, m := range meta.Blocks {
		if err := w.WritePadding(sampleAlign); err != nil {
			return err
		}
		if w.Pos() != int64(m.Offset) {
			return fmt.Errorf("block %d: writer at %d, layout offset %d", i, w.Pos(), m.Offset)
		}
		if err := w.WriteBytes(enc[i].payload); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	if err := w.WritePadding(sampleAlign); err != nil {
		return err
	}

	blob, err := binpkg.NewReader(f).ReadBytes(int(w.Pos()))
	if err != nil {
		return err
	}
	meta.BinarySize = uint64(len(blob))
	meta.Checksum = binpkg.Lookup3Checksum(blob)
	return nil
}

// writeFile writes data atomically to path.
func writeFile(path string, data []byte) error {
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// writeAtomic fills a temporary file beside path through fn and renames it
// into place, so readers never see a partial file.
func writeAtomic(path string, fn func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := fn(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
