package volume

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/blockvol/grid"
)

// twoBlocks returns face-centered neighbours sharing the x=3 face. Samples
// are multiples of 0.25, so they survive the float32 round trip exactly.
func twoBlocks(t *testing.T) *grid.Dataset {
	t.Helper()
	bld := grid.NewBuilder("density")
	f := []float64{0, 1, 2, 3}
	samples := make([]float64, 27)
	for i := range samples {
		samples[i] = float64(i) * 0.25
	}
	require.NoError(t, bld.AddFaceCentered(samples, [3]int{3, 3, 3}, f, f, f))

	coarse := []float64{3, 4.5, 6}
	samples = make([]float64, 8)
	for i := range samples {
		samples[i] = 10 - float64(i)
	}
	require.NoError(t, bld.AddFaceCentered(samples, [3]int{2, 2, 2}, coarse, []float64{0, 1.5, 3}, []float64{0, 1.5, 3}))

	ds, err := bld.Build()
	require.NoError(t, err)
	return ds
}

func requireSameDataset(t *testing.T, want, got *grid.Dataset) {
	t.Helper()
	assert.Equal(t, want.Variable(), got.Variable())
	require.Equal(t, want.Len(), got.Len())
	for i := 0; i < want.Len(); i++ {
		w, g := want.Block(i), got.Block(i)
		assert.Equal(t, w.Shape(), g.Shape(), "block %d", i)
		assert.Equal(t, w.Samples(), g.Samples(), "block %d", i)
		for axis := 0; axis < 3; axis++ {
			assert.Equal(t, w.Coords(axis), g.Coords(axis), "block %d axis %d", i, axis)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		filters []string
	}{
		{"raw", nil},
		{"shuffle deflate", []string{"shuffle", "deflate"}},
		{"shuffle lz4", []string{"shuffle:4", "lz4"}},
		{"fletcher32", []string{"fletcher32"}},
		{"all", []string{"shuffle", "lz4", "deflate:9", "fletcher32"}},
	}
	ds := twoBlocks(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			e, err := Write(dir, "density_0001", ds, WithFilters(tt.filters...), WithWorkers(2))
			require.NoError(t, err)
			assert.Equal(t, "density_0001.json", e.JSON)
			assert.Equal(t, "density_0001.bin", e.Binary)
			assert.Equal(t, "density_0001", e.Prefix())
			assert.Equal(t, KindBlocks, e.Kind)
			assert.NotEqual(t, uuid.Nil, e.ID)

			got, meta, err := Read(dir, "density_0001")
			require.NoError(t, err)
			requireSameDataset(t, ds, got)

			assert.Equal(t, FormatVersion, meta.Format)
			assert.Equal(t, e.ID, meta.ID)
			assert.Equal(t, 2, meta.NumBlocks)
			assert.Equal(t, [3]float64{0, 0, 0}, meta.Mins)
			assert.Equal(t, [3]float64{4.5, 2, 2}, meta.Maxes)
			require.NotNil(t, meta.ValueMin)
			require.NotNil(t, meta.ValueMax)
			assert.Equal(t, 0.0, *meta.ValueMin)
			assert.Equal(t, 10.0, *meta.ValueMax)
			assert.Len(t, meta.Filters, len(tt.filters))
			for _, b := range meta.Blocks {
				assert.Zero(t, b.Offset%sampleAlign)
			}

			info, err := os.Stat(filepath.Join(dir, e.Binary))
			require.NoError(t, err)
			assert.Equal(t, meta.BinarySize, uint64(info.Size()))
		})
	}
}

func TestRawChecksumIgnoresFilters(t *testing.T) {
	ds := twoBlocks(t)
	dir := t.TempDir()
	_, err := Write(dir, "plain", ds)
	require.NoError(t, err)
	_, err = Write(dir, "packed", ds, WithFilters("shuffle", "deflate"))
	require.NoError(t, err)

	plain, err := ReadMetadata(dir, "plain")
	require.NoError(t, err)
	packed, err := ReadMetadata(dir, "packed")
	require.NoError(t, err)
	assert.Equal(t, plain.RawChecksum, packed.RawChecksum)
	// unfiltered payloads are the raw samples
	assert.Equal(t, plain.RawChecksum, plain.Checksum)
}

func TestWriteRefusesExisting(t *testing.T) {
	ds := twoBlocks(t)
	dir := t.TempDir()
	first, err := Write(dir, "v", ds)
	require.NoError(t, err)

	_, err = Write(dir, "v", ds)
	assert.ErrorIs(t, err, ErrExists)

	second, err := Write(dir, "v", ds, WithOverwrite(), WithIndent())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	data, err := os.ReadFile(filepath.Join(dir, "v.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"format\"")

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files are renamed away")
}

func TestWriteWithID(t *testing.T) {
	id := uuid.MustParse("0b0c4a9e-6a43-4a52-9a5c-0d1c6f4f0a11")
	dir := t.TempDir()
	e, err := Write(dir, "v", twoBlocks(t), WithID(id))
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)

	meta, err := ReadMetadata(dir, "v")
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
}

func TestWriteUnknownFilter(t *testing.T) {
	_, err := Write(t.TempDir(), "v", twoBlocks(t), WithFilters("szip"))
	assert.Error(t, err)
}

func TestWriteAlignsPayloads(t *testing.T) {
	for _, filters := range [][]string{{"deflate:9"}, {"shuffle", "lz4", "fletcher32"}} {
		dir := t.TempDir()
		_, err := Write(dir, "v", twoBlocks(t), WithFilters(filters...))
		require.NoError(t, err)
		meta, err := ReadMetadata(dir, "v")
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, "v.bin"))
		require.NoError(t, err)

		require.Equal(t, meta.BinarySize, uint64(len(data)), "%v", filters)
		assert.Zero(t, meta.BinarySize%4, "%v: blob size", filters)

		end := uint64(0)
		for i, b := range meta.Blocks {
			assert.Zero(t, b.Offset%4, "%v: block %d offset", filters, i)
			for _, pad := range data[end:b.Offset] {
				assert.Zero(t, pad, "%v: gap before block %d", filters, i)
			}
			end = b.Offset + b.Length
		}
		assert.Less(t, meta.BinarySize-end, uint64(4), "%v: tail", filters)
		for _, pad := range data[end:] {
			assert.Zero(t, pad, "%v: tail", filters)
		}

		ds, _, err := Read(dir, "v")
		require.NoError(t, err)
		requireSameDataset(t, twoBlocks(t), ds)
	}
}

func TestReadDetectsBlobCorruption(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, "v", twoBlocks(t))
	require.NoError(t, err)

	path := filepath.Join(dir, "v.bin")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[5] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, _, err = Read(dir, "v")
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestReadDetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, "v", twoBlocks(t))
	require.NoError(t, err)

	path := filepath.Join(dir, "v.bin")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, _, err = Read(dir, "v")
	assert.ErrorIs(t, err, ErrFormat)
}

// editMetadata rewrites dir/v.json through fn.
func editMetadata(t *testing.T, dir string, fn func(m *Metadata)) {
	t.Helper()
	path := filepath.Join(dir, "v.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Metadata
	require.NoError(t, json.Unmarshal(data, &m))
	fn(&m)
	data, err = json.Marshal(&m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestReadRejectsBadMetadata(t *testing.T) {
	tests := []struct {
		name string
		edit func(m *Metadata)
	}{
		{"format", func(m *Metadata) { m.Format = "blockvol/0" }},
		{"kind", func(m *Metadata) { m.Kind = "mesh" }},
		{"count", func(m *Metadata) { m.NumBlocks = 3 }},
		{"overlap", func(m *Metadata) { m.Blocks[1].Offset = 0 }},
		{"past end", func(m *Metadata) { m.Blocks[1].Length += 64 }},
		{"binary path", func(m *Metadata) { m.BinaryFile = "../v.bin" }},
		{"negative shape", func(m *Metadata) { m.Blocks[1].Shape = [3]int{-2, 2, 2} }},
		{"zero shape", func(m *Metadata) { m.Blocks[0].Shape[2] = 0 }},
		{"huge shape", func(m *Metadata) { m.Blocks[1].Shape = [3]int{1 << 20, 1 << 20, 2} }},
		{"short coords", func(m *Metadata) { m.Blocks[0].YValues = m.Blocks[0].YValues[:2] }},
		{"long coords", func(m *Metadata) { m.Blocks[1].ZValues = append(m.Blocks[1].ZValues, 4, 5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Write(dir, "v", twoBlocks(t))
			require.NoError(t, err)
			editMetadata(t, dir, tt.edit)

			_, _, err = Read(dir, "v")
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestBlockMetaShape(t *testing.T) {
	c := []float64{0, 1, 2}
	ok := BlockMeta{Shape: [3]int{2, 3, 2}, XValues: c, YValues: c, ZValues: c}
	assert.NoError(t, ok.check())

	huge := ok
	huge.Shape = [3]int{1 << 20, 1 << 20, 2}
	assert.ErrorContains(t, huge.check(), "more than")

	negative := ok
	negative.Shape[0] = -2
	assert.ErrorContains(t, negative.check(), "axis 0")

	faces := ok
	faces.YValues = []float64{0, 1, 2, 3, 4}
	assert.ErrorContains(t, faces.check(), "axis 1 has 5 coordinates")
}

func TestReadMissing(t *testing.T) {
	_, _, err := Read(t.TempDir(), "nothing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCubeRoundTrip(t *testing.T) {
	ds := twoBlocks(t)
	cube, err := ds.Resample(context.Background(), 4, grid.Query{Default: grid.Set(-1)})
	require.NoError(t, err)

	dir := t.TempDir()
	e, err := WriteCube(dir, "density_cube", "density", cube, WithFilters("shuffle", "lz4"))
	require.NoError(t, err)
	assert.Equal(t, KindCube, e.Kind)

	got, meta, err := ReadCube(dir, "density_cube")
	require.NoError(t, err)
	assert.Equal(t, 4, meta.Side)
	assert.Equal(t, 4, got.Side)
	assert.Equal(t, cube.Ticks, got.Ticks)
	require.Len(t, got.Values, len(cube.Values))
	for i := range cube.Values {
		assert.InDelta(t, cube.Values[i], got.Values[i], 1e-5, "value %d", i)
	}

	_, err = Write(dir, "density_blocks", ds)
	require.NoError(t, err)
	_, _, err = ReadCube(dir, "density_blocks")
	assert.ErrorIs(t, err, ErrKind)
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, "v", twoBlocks(t))
	require.NoError(t, err)
	meta, err := ReadMetadata(dir, "v")
	require.NoError(t, err)

	var buf bytes.Buffer
	Dump(&buf, meta)
	assert.Contains(t, buf.String(), "Variable: (string) (len=7) \"density\"")
	assert.Contains(t, buf.String(), "NumBlocks: (int) 2")
}
