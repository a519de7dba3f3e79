package binary

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// EncodeFloat32 returns src as consecutive little-endian float32 values.
// float64 inputs are rounded to the nearest float32.
func EncodeFloat32[T constraints.Float](src []T) []byte {
	return AppendFloat32(make([]byte, 0, 4*len(src)), src)
}

// AppendFloat32 appends src as little-endian float32 values to dst.
func AppendFloat32[T constraints.Float](dst []byte, src []T) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))
	}
	return dst
}

// DecodeFloat32 fills dst from little-endian float32 values in src. src must
// hold exactly len(dst) values.
func DecodeFloat32[T constraints.Float](dst []T, src []byte) error {
	if len(src) != 4*len(dst) {
		return fmt.Errorf("%w: %d bytes for %d values", ErrShortBuffer, len(src), len(dst))
	}
	for i := range dst {
		dst[i] = T(math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:])))
	}
	return nil
}
