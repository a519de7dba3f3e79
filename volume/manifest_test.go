package volume

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/blockvol/grid"
)

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Empty(t, m.Entries)

	a := Entry{JSON: "b.json", Binary: "b.bin", Variable: "rho", Kind: KindBlocks, ID: uuid.New()}
	b := Entry{JSON: "a.json", Binary: "a.bin", Variable: "rho", Kind: KindCube, ID: uuid.New()}
	m.Add(a)
	m.Add(b)
	replaced := a
	replaced.ID = uuid.New()
	m.Add(replaced)
	require.Len(t, m.Entries, 2)

	got, ok := m.Find("b")
	require.True(t, ok)
	assert.Equal(t, replaced.ID, got.ID)
	_, ok = m.Find("c")
	assert.False(t, ok)

	m.Sort()
	assert.Equal(t, "a", m.Entries[0].Prefix())
	require.NoError(t, m.Save(dir))

	loaded, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m.Entries, loaded.Entries)
}

func TestSinkAndSource(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, WithFilters("lz4"))
	require.NoError(t, err)
	assert.Equal(t, dir, sink.Dir())

	ds := twoBlocks(t)
	assert.False(t, sink.Exists("density_0001"))
	_, err = sink.WriteDataset("density_0001", ds)
	require.NoError(t, err)
	assert.True(t, sink.Exists("density_0001"))

	cube, err := ds.Resample(context.Background(), 2, grid.Query{})
	require.NoError(t, err)
	_, err = sink.WriteCube("density_cube", "density", cube)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	m, err := LoadManifest(dir)
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)

	src := NewSource(dir)
	vars, err := src.Variables()
	require.NoError(t, err)
	assert.Equal(t, []string{"density"}, vars)

	got, err := src.Load(context.Background(), "density")
	require.NoError(t, err)
	requireSameDataset(t, ds, got)

	_, err = src.Load(context.Background(), "pressure")
	assert.ErrorIs(t, err, ErrNoVariable)
}

func TestRescan(t *testing.T) {
	dir := t.TempDir()
	ds := twoBlocks(t)
	a, err := Write(dir, "b_density", ds)
	require.NoError(t, err)
	b, err := Write(dir, "a_density", ds)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{"hello": 1}`), 0o644))
	require.NoError(t, (&Manifest{}).Save(dir))

	m, err := Rescan(dir)
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, b, m.Entries[0])
	assert.Equal(t, a, m.Entries[1])
}
