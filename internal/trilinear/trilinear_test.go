package trilinear

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-10

func affine(x, y, z float64) float64 {
	return 2*x - 3*y + 5*z + 7
}

func affineCorners() [Corners]float64 {
	var c [Corners]float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				c[i*4+j*2+k] = affine(float64(i), float64(j), float64(k))
			}
		}
	}
	return c
}

func TestInterpolateAffineExact(t *testing.T) {
	c := affineCorners()
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 200; n++ {
		off := [3]float64{rng.Float64(), rng.Float64(), rng.Float64()}
		want := affine(off[0], off[1], off[2])
		assert.InDelta(t, want, Interpolate(&c, off), tolerance, "offset %v", off)
		assert.InDelta(t, want, Centered(&c, off), tolerance, "centered offset %v", off)
	}
}

func TestInterpolateCorners(t *testing.T) {
	// Perturb one corner and expect that exact value back at its offset.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				var c [Corners]float64
				for idx := range c {
					c[idx] = float64(idx + i*3 + j*7 + k*2 - 2)
				}
				want := float64(i + j*3 + k*5 - 12)
				c[i*4+j*2+k] = want
				off := [3]float64{float64(i), float64(j), float64(k)}

				assert.InDelta(t, want, Interpolate(&c, off), tolerance)
				assert.InDelta(t, want, Centered(&c, off), tolerance)
			}
		}
	}
}

func TestInterpolateCentroidIsMean(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		var c [Corners]float64
		var mean float64
		for idx := range c {
			c[idx] = rng.NormFloat64() * 100
			mean += c[idx]
		}
		mean /= Corners
		off := [3]float64{0.5, 0.5, 0.5}
		assert.InDelta(t, mean, Interpolate(&c, off), tolerance)
		assert.InDelta(t, mean, Centered(&c, off), tolerance)
	}
}

func TestFormulationsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 500; n++ {
		var c [Corners]float64
		for idx := range c {
			c[idx] = rng.Float64()*20 - 10
		}
		off := [3]float64{rng.Float64(), rng.Float64(), rng.Float64()}
		assert.InDelta(t, Centered(&c, off), Interpolate(&c, off), tolerance)
	}
}

func TestInterpolateCornersSlice(t *testing.T) {
	c := affineCorners()
	got, err := InterpolateCorners(c[:], [3]float64{0.25, 0.5, 0.75})
	require.NoError(t, err)
	assert.InDelta(t, affine(0.25, 0.5, 0.75), got, tolerance)

	tests := []struct {
		name    string
		corners []float64
	}{
		{"nil", nil},
		{"short", make([]float64, 7)},
		{"long", make([]float64, 9)},
		{"flattened 2x2", make([]float64, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InterpolateCorners(tt.corners, [3]float64{})
			assert.ErrorIs(t, err, ErrInvalidShape)
		})
	}
}
