package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const tolerance = 1e-10

func affine(p Point) float64 {
	return 3*p[0] - 2*p[1] + 0.5*p[2] + 1
}

// stretched returns n+extra strictly increasing values starting at lo, with cell
// widths growing geometrically by ratio.
func stretched(lo float64, n, extra int, width, ratio float64) []float64 {
	c := make([]float64, n+extra)
	x := lo
	for i := range c {
		c[i] = x
		x += width
		width *= ratio
	}
	return c
}

// sampled builds a block whose samples follow f at the coordinate positions.
func sampled(t testing.TB, f func(Point) float64, x, y, z []float64, shape [3]int) *Block {
	t.Helper()
	samples := make([]float64, 0, shape[0]*shape[1]*shape[2])
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			for k := 0; k < shape[2]; k++ {
				samples = append(samples, f(Point{x[i], y[j], z[k]}))
			}
		}
	}
	b, err := NewBlock(samples, shape, x, y, z)
	require.NoError(t, err)
	return b
}

// tiling lays out nx×ny×nz face-centered blocks over [0, 8)^3 with differing
// resolutions, so neighbours share faces but not sample spacing.
func tiling(t testing.TB, f func(Point) float64, n [3]int) []*Block {
	t.Helper()
	var blocks []*Block
	span := [3]float64{8 / float64(n[0]), 8 / float64(n[1]), 8 / float64(n[2])}
	for i := 0; i < n[0]; i++ {
		for j := 0; j < n[1]; j++ {
			for k := 0; k < n[2]; k++ {
				cells := 2 + (i+j+k)%3
				var coords [3][]float64
				var shape [3]int
				for a, at := range [3]int{i, j, k} {
					shape[a] = cells
					coords[a] = faces(float64(at)*span[a], float64(at+1)*span[a], cells)
				}
				blocks = append(blocks, sampled(t, f, coords[0], coords[1], coords[2], shape))
			}
		}
	}
	return blocks
}

// faces returns cells+1 uniformly spaced faces spanning [lo, hi].
func faces(lo, hi float64, cells int) []float64 {
	c := make([]float64, cells+1)
	for i := range c {
		c[i] = lo + (hi-lo)*float64(i)/float64(cells)
	}
	c[cells] = hi
	return c
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
