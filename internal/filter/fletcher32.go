package filter

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/blockvol/internal/binary"
)

// Fletcher32Filter appends a Fletcher-32 checksum to the payload and checks
// it on the way back.
type Fletcher32Filter struct{}

// NewFletcher32 creates a new Fletcher-32 filter.
func NewFletcher32() *Fletcher32Filter {
	return &Fletcher32Filter{}
}

func (f *Fletcher32Filter) Name() string {
	return "fletcher32"
}

// Encode returns the input followed by its little-endian checksum.
func (f *Fletcher32Filter) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input), len(input)+4)
	copy(out, input)
	return binary.LittleEndian.AppendUint32(out, binpkg.Fletcher32(input)), nil
}

// Decode verifies the Fletcher-32 checksum and returns the data without it.
// The checksum is stored as the last 4 bytes of the input.
func (f *Fletcher32Filter) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	if computed := binpkg.Fletcher32(data); stored != computed {
		return nil, fmt.Errorf("fletcher32: %w (stored=0x%08x, computed=0x%08x)",
			ErrChecksum, stored, computed)
	}
	return data, nil
}
