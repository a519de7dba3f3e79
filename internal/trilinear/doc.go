// Package trilinear evaluates the trilinear interpolant of a unit cell.
//
// A cell is described by its eight corner values, stored in C order of a
// 2×2×2 array: corner (i, j, k) lives at index i*4 + j*2 + k. The offset is
// the fractional position inside the cell, each component in [0, 1].
//
// Two equivalent formulations are provided:
//
//   - [Interpolate] uses the product weights
//     w(i,j,k) = wx(i) * wy(j) * wz(k) with wx(0) = 1-x, wx(1) = x.
//   - [Centered] maps the offset to [-1, 1] and evaluates the degree-1-per-axis
//     polynomial basis {xyz, xy, xz, yz, x, y, z, 1}, with the ±1 corner signs
//     computed inline instead of read from a shared coefficient table.
//
// Both return the same value up to floating point rounding. The package holds
// no state and is safe for concurrent use.
package trilinear
