package filter

import "strconv"

// Shuffle implements the byte shuffle filter.
// This filter rearranges bytes to improve compression by grouping
// similar byte positions together (e.g., all MSBs, then all next bytes, etc.).
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter for elements of elemSize bytes. Sizes
// below 1 select 4, the size of a stored sample.
func NewShuffle(elemSize int) *Shuffle {
	if elemSize < 1 {
		elemSize = 4
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) Name() string {
	if f.elemSize == 4 {
		return "shuffle"
	}
	return "shuffle:" + strconv.Itoa(f.elemSize)
}

// Encode groups byte j of every element together. Trailing bytes that do
// not fill an element are kept in place.
func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	numElems := len(input) / f.elemSize
	if f.elemSize == 1 || numElems == 0 {
		return input, nil
	}
	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[j*numElems+i] = input[i*f.elemSize+j]
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])
	return output, nil
}

// Decode reverses the shuffle transformation.
// Input is organized as: [all byte 0s][all byte 1s]...[all byte N-1s]
// Output is organized as: [elem0][elem1]...[elemM]
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	numElems := len(input) / f.elemSize
	if f.elemSize == 1 || numElems == 0 {
		return input, nil
	}
	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[i*f.elemSize+j] = input[j*numElems+i]
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])
	return output, nil
}
