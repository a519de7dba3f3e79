package volume

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robert-malhotra/blockvol/grid"
)

// ErrNoVariable is returned when a directory holds no block volume for the
// requested variable.
var ErrNoVariable = errors.New("variable not found")

// Source reads block volumes listed in a directory's manifest.
type Source struct {
	Dir string
}

// NewSource returns a Source over dir.
func NewSource(dir string) *Source {
	return &Source{Dir: dir}
}

// Variables lists the variables with a block volume in the manifest, in
// manifest order.
func (s *Source) Variables() ([]string, error) {
	m, err := LoadManifest(s.Dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range m.Entries {
		if e.Kind != KindBlocks || seen[e.Variable] {
			continue
		}
		seen[e.Variable] = true
		out = append(out, e.Variable)
	}
	return out, nil
}

// Load reads the first block volume written for variable.
func (s *Source) Load(ctx context.Context, variable string) (*grid.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := LoadManifest(s.Dir)
	if err != nil {
		return nil, err
	}
	for _, e := range m.Entries {
		if e.Kind == KindBlocks && e.Variable == variable {
			ds, _, err := Read(s.Dir, e.Prefix())
			return ds, err
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrNoVariable, variable, s.Dir)
}

// DirSink writes volumes into a directory and records them in its manifest.
// It is safe for concurrent use.
type DirSink struct {
	dir  string
	opts []WriteOption

	mu       sync.Mutex
	manifest *Manifest
}

// NewDirSink creates dir if needed and loads any existing manifest.
func NewDirSink(dir string, opts ...WriteOption) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	return &DirSink{dir: dir, opts: opts, manifest: m}, nil
}

// Dir returns the output directory.
func (s *DirSink) Dir() string { return s.dir }

// Exists reports whether either file for prefix is already present.
func (s *DirSink) Exists(prefix string) bool {
	jsonName, binName := Paths(prefix)
	for _, name := range []string{jsonName, binName} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return true
		}
	}
	return false
}

// WriteDataset writes ds under prefix.
func (s *DirSink) WriteDataset(prefix string, ds *grid.Dataset) (Entry, error) {
	e, err := Write(s.dir, prefix, ds, s.opts...)
	if err != nil {
		return Entry{}, err
	}
	s.record(e)
	return e, nil
}

// WriteCube writes a resampled cube under prefix.
func (s *DirSink) WriteCube(prefix, variable string, cube *grid.Cube) (Entry, error) {
	e, err := WriteCube(s.dir, prefix, variable, cube, s.opts...)
	if err != nil {
		return Entry{}, err
	}
	s.record(e)
	return e, nil
}

func (s *DirSink) record(e Entry) {
	s.mu.Lock()
	s.manifest.Add(e)
	s.mu.Unlock()
}

// Close saves the manifest.
func (s *DirSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest.Save(s.dir)
}
