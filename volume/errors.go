package volume

import "errors"

var (
	ErrFormat   = errors.New("volume: malformed volume")
	ErrChecksum = errors.New("volume: checksum mismatch")
	ErrExists   = errors.New("volume: output already exists")
	ErrKind     = errors.New("volume: unexpected volume kind")
)

// FormatVersion identifies the metadata layout written by this package.
const FormatVersion = "blockvol/1"
