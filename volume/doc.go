// Package volume stores block datasets as a pair of files: a JSON metadata
// record and a little-endian float32 sample blob.
//
// The metadata lists every block's shape, per-axis coordinates and the
// region of the blob holding its samples. Each region may pass through a
// filter pipeline (see internal/filter); the filters and the per-block skip
// mask are recorded so readers can undo them. Two lookup3 checksums guard
// the blob: one over the stored bytes and one over the raw samples.
//
// A resampled cube is stored the same way, as a single sample-aligned block
// whose coordinates are the lattice ticks.
//
// A directory of volumes is enumerated by a [Manifest] in manifest.json.
package volume
