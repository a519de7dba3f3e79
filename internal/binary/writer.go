package binary

import "io"

// Writer writes byte runs to an io.WriterAt at a moving position.
type Writer struct {
	w   io.WriterAt
	pos int64
}

// NewWriter creates a writer positioned at offset 0.
func NewWriter(w io.WriterAt) *Writer {
	return &Writer{w: w}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WritePadding writes zero bytes up to the next multiple of alignment.
func (w *Writer) WritePadding(alignment int64) error {
	if alignment <= 1 {
		return nil
	}
	remainder := w.pos % alignment
	if remainder == 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, alignment-remainder))
}

// SeekableWriterAt wraps an io.WriteSeeker to provide io.WriterAt functionality.
// This is useful when working with os.File which implements WriteSeeker.
type SeekableWriterAt struct {
	ws io.WriteSeeker
}

// NewSeekableWriterAt creates a WriterAt from a WriteSeeker.
func NewSeekableWriterAt(ws io.WriteSeeker) *SeekableWriterAt {
	return &SeekableWriterAt{ws: ws}
}

// WriteAt implements io.WriterAt.
func (s *SeekableWriterAt) WriteAt(p []byte, off int64) (n int, err error) {
	if _, err = s.ws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.ws.Write(p)
}
