// Package binary reads and writes the little-endian sample blobs that back
// volume files: float32 sample runs, positioned payload reads and aligned
// writes, and the checksums that guard them.
package binary

import (
	"errors"
	"fmt"
	"io"
)

// ErrShortBuffer is returned when a byte slice does not hold a whole number
// of float32 values, or fewer values than requested.
var ErrShortBuffer = errors.New("binary: short float32 buffer")

// Reader reads byte runs from an io.ReaderAt at a moving position.
type Reader struct {
	r   io.ReaderAt
	pos int64
}

// NewReader creates a reader positioned at offset 0.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, pos: offset}
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := r.r.ReadAt(buf, r.pos)
	if read == n {
		// io.ReaderAt may report io.EOF alongside a full read at the end
		err = nil
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, err)
	}
	r.pos += int64(n)
	return buf, nil
}
