package volume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ManifestName is the manifest file name inside an output directory.
const ManifestName = "manifest.json"

// Entry names one written volume.
type Entry struct {
	JSON     string    `json:"json"`
	Binary   string    `json:"bin"`
	Variable string    `json:"variable"`
	Kind     Kind      `json:"kind"`
	ID       uuid.UUID `json:"id"`
}

// Prefix returns the name the volume was written under.
func (e Entry) Prefix() string {
	return strings.TrimSuffix(e.JSON, ".json")
}

// Manifest lists the volumes of a directory.
type Manifest struct {
	Entries []Entry `json:"entries"`
}

// LoadManifest reads dir/manifest.json. A missing manifest is empty.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, ManifestName, err)
	}
	return &m, nil
}

// Add appends e, replacing an entry with the same prefix.
func (m *Manifest) Add(e Entry) {
	for i := range m.Entries {
		if m.Entries[i].Prefix() == e.Prefix() {
			m.Entries[i] = e
			return
		}
	}
	m.Entries = append(m.Entries, e)
}

// Find returns the entry written under prefix.
func (m *Manifest) Find(prefix string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Prefix() == prefix {
			return e, true
		}
	}
	return Entry{}, false
}

// Sort orders entries by prefix.
func (m *Manifest) Sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].Prefix() < m.Entries[j].Prefix()
	})
}

// Save writes the manifest to dir/manifest.json.
func (m *Manifest) Save(dir string) error {
	if m.Entries == nil {
		m.Entries = []Entry{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, ManifestName), append(data, '\n'))
}

// Rescan rebuilds a manifest from the metadata files present in dir. Files
// that are not volume metadata are ignored.
func Rescan(dir string) (*Manifest, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	for _, path := range matches {
		name := filepath.Base(path)
		if name == ManifestName {
			continue
		}
		prefix := strings.TrimSuffix(name, ".json")
		meta, err := ReadMetadata(dir, prefix)
		if errors.Is(err, ErrFormat) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.Add(Entry{
			JSON:     name,
			Binary:   meta.BinaryFile,
			Variable: meta.Variable,
			Kind:     meta.Kind,
			ID:       meta.ID,
		})
	}
	m.Sort()
	return m, nil
}
