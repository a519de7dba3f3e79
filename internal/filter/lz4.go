package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 implements LZ4 frame compression.
type LZ4 struct{}

// NewLZ4 creates an LZ4 filter.
func NewLZ4() *LZ4 {
	return &LZ4{}
}

func (f *LZ4) Name() string {
	return "lz4"
}

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(input); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if buf.Len() >= len(input) {
		return nil, ErrIncompressible
	}
	return buf.Bytes(), nil
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	output, err := io.ReadAll(lz4.NewReader(bytes.NewReader(input)))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return output, nil
}
