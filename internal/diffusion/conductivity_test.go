package diffusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/vision-kernels-mcp/internal/imaging"
)

func TestParseConductivity(t *testing.T) {
	tests := []struct {
		in      string
		want    Conductivity
		wantErr bool
	}{
		{"", PeronaMalikG2, false},
		{"pm_g1", PeronaMalikG1, false},
		{"pm_g2", PeronaMalikG2, false},
		{"weickert", Weickert, false},
		{"charbonnier", Charbonnier, false},
		{"tukey", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConductivity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConductivityEval(t *testing.T) {
	kinds := []Conductivity{PeronaMalikG1, PeronaMalikG2, Weickert, Charbonnier}

	t.Run("no gradient conducts fully", func(t *testing.T) {
		for _, kind := range kinds {
			assert.InDelta(t, 1.0, kind.Eval(0, 0.05), 1e-12, string(kind))
		}
	})

	t.Run("monotonically decreasing", func(t *testing.T) {
		for _, kind := range kinds {
			prev := kind.Eval(0, 0.1)
			for g := 0.01; g < 1; g += 0.01 {
				v := kind.Eval(g*g, 0.1)
				assert.LessOrEqual(t, v, prev, "%s at %g", kind, g)
				assert.GreaterOrEqual(t, v, 0.0, "%s at %g", kind, g)
				prev = v
			}
		}
	})

	t.Run("known values at gradient equal to k", func(t *testing.T) {
		k := 0.2
		assert.InDelta(t, math.Exp(-1), PeronaMalikG1.Eval(k*k, k), 1e-12)
		assert.InDelta(t, 0.5, PeronaMalikG2.Eval(k*k, k), 1e-12)
		assert.InDelta(t, 1-math.Exp(-3.315), Weickert.Eval(k*k, k), 1e-12)
		assert.InDelta(t, 1/math.Sqrt2, Charbonnier.Eval(k*k, k), 1e-12)
	})
}

func TestComputeFlow(t *testing.T) {
	lx := imaging.NewGrayImage(4, 3)
	ly := imaging.NewGrayImage(4, 3)
	lx.Put(1, 1, 0.3)
	ly.Put(1, 1, 0.4)
	dst := imaging.NewGrayImage(4, 3)

	require.NoError(t, ComputeFlow(dst, lx, ly, 0.5, PeronaMalikG2))

	// |grad|^2 = 0.25 = k^2
	assert.InDelta(t, 0.5, dst.Get(1, 1), 1e-6)
	assert.Equal(t, float32(1), dst.Get(0, 0))
	assert.Equal(t, float32(1), dst.Get(3, 2))

	t.Run("mismatched sizes", func(t *testing.T) {
		err := ComputeFlow(imaging.NewGrayImage(5, 3), lx, ly, 0.5, PeronaMalikG2)
		require.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("non-positive contrast", func(t *testing.T) {
		require.Error(t, ComputeFlow(dst, lx, ly, 0, PeronaMalikG1))
		require.Error(t, ComputeFlow(dst, lx, ly, math.NaN(), PeronaMalikG1))
	})
}

func TestContrastFactor(t *testing.T) {
	t.Run("flat image falls back", func(t *testing.T) {
		img := imaging.NewGrayImage(16, 16)
		img.Fill(0.4)
		k, err := ContrastFactor(img, DefaultContrastPercentile, DefaultContrastSigma, DefaultContrastBins)
		require.NoError(t, err)
		assert.Equal(t, FallbackContrast, k)
	})

	t.Run("ramp has a single gradient level", func(t *testing.T) {
		img := imaging.NewGrayImage(32, 32)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				img.Put(x, y, float32(x)/32)
			}
		}
		k, err := ContrastFactor(img, DefaultContrastPercentile, DefaultContrastSigma, DefaultContrastBins)
		require.NoError(t, err)
		assert.Greater(t, k, 0.0)
		// Every interior gradient is at most the ramp slope.
		assert.LessOrEqual(t, k, 1.0/32+1e-6)
	})

	t.Run("grows with percentile", func(t *testing.T) {
		img := imaging.NewGrayImage(32, 32)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				img.Put(x, y, float32(x*x+y)/1024)
			}
		}
		lo, err := ContrastFactor(img, 0.2, 1, 100)
		require.NoError(t, err)
		hi, err := ContrastFactor(img, 0.9, 1, 100)
		require.NoError(t, err)
		assert.Less(t, lo, hi)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		img := imaging.NewGrayImage(8, 8)
		_, err := ContrastFactor(imaging.NewGrayImage(2, 8), 0.7, 1, 10)
		require.ErrorIs(t, err, ErrTooSmall)
		_, err = ContrastFactor(img, 0, 1, 10)
		require.Error(t, err)
		_, err = ContrastFactor(img, 1.5, 1, 10)
		require.Error(t, err)
		_, err = ContrastFactor(img, 0.7, 1, 0)
		require.Error(t, err)
	})
}
