package trilinear

import (
	"errors"
	"fmt"
)

// ErrInvalidShape is returned when the corner values do not form a 2×2×2 cell.
var ErrInvalidShape = errors.New("corner values must be a 2x2x2 array")

// Corners is the number of corner values of a cell.
const Corners = 8

// Interpolate returns the trilinear interpolant of corners at offset.
func Interpolate(corners *[Corners]float64, offset [3]float64) float64 {
	x, y, z := offset[0], offset[1], offset[2]
	x0, y0, z0 := 1-x, 1-y, 1-z

	// Collapse along z, then y, then x.
	c00 := corners[0]*z0 + corners[1]*z
	c01 := corners[2]*z0 + corners[3]*z
	c10 := corners[4]*z0 + corners[5]*z
	c11 := corners[6]*z0 + corners[7]*z

	c0 := c00*y0 + c01*y
	c1 := c10*y0 + c11*y

	return c0*x0 + c1*x
}

// InterpolateCorners is the slice form of Interpolate.
func InterpolateCorners(corners []float64, offset [3]float64) (float64, error) {
	if len(corners) != Corners {
		return 0, fmt.Errorf("%w: got %d values", ErrInvalidShape, len(corners))
	}
	var c [Corners]float64
	copy(c[:], corners)
	return Interpolate(&c, offset), nil
}

// Centered evaluates the same interpolant through the centred polynomial
// basis. It exists as an independent formulation for cross-checking.
func Centered(corners *[Corners]float64, offset [3]float64) float64 {
	x := 2*offset[0] - 1
	y := 2*offset[1] - 1
	z := 2*offset[2] - 1
	terms := [Corners]float64{x * y * z, x * y, x * z, y * z, x, y, z, 1}

	var sum float64
	for idx := 0; idx < Corners; idx++ {
		sx := float64((idx>>2)&1)*2 - 1
		sy := float64((idx>>1)&1)*2 - 1
		sz := float64(idx&1)*2 - 1
		basis := sx*sy*sz*terms[0] +
			sx*sy*terms[1] +
			sx*sz*terms[2] +
			sy*sz*terms[3] +
			sx*terms[4] +
			sy*terms[5] +
			sz*terms[6] +
			terms[7]
		sum += corners[idx] * basis
	}
	return sum / 8
}
