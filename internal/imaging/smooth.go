package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// GaussianKernel builds a normalized 1D Gaussian kernel for the given sigma.
//
// The kernel radius is ceil(3*sigma), so the kernel width is 2*radius+1.
// Sigma values below 0.5 are raised to 0.5 to keep at least a 3-tap kernel.
func GaussianKernel(sigma float64) []float64 {
	if sigma < 0.5 {
		sigma = 0.5
	}
	radius := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*radius+1)

	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianSmooth returns a copy of g blurred with a separable Gaussian of the given sigma.
//
// Border pixels use clamped (replicated) edge values. Rows are processed in
// parallel; the result does not depend on the number of workers.
func GaussianSmooth(g *GrayImage, sigma float64) *GrayImage {
	k := GaussianKernel(sigma)
	radius := len(k) / 2
	w, h := g.width, g.height

	tmp := NewGrayImage(w, h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			src := g.Row(y)
			dst := tmp.Row(y)
			for x := 0; x < w; x++ {
				var sum float64
				for i := -radius; i <= radius; i++ {
					sum += float64(src[clamp(x+i, 0, w-1)]) * k[i+radius]
				}
				dst[x] = float32(sum)
			}
		}
	})

	out := NewGrayImage(w, h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			dst := out.Row(y)
			for x := 0; x < w; x++ {
				var sum float64
				for i := -radius; i <= radius; i++ {
					sum += float64(tmp.pix[clamp(y+i, 0, h-1)*w+x]) * k[i+radius]
				}
				dst[x] = float32(sum)
			}
		}
	})
	return out
}

// scharrX is the horizontal Scharr operator, indexed [row][column]. Scaled by
// 1/32 a unit ramp yields a derivative of 1.
var scharrX = [3][3]float64{
	{-3, 0, 3},
	{-10, 0, 10},
	{-3, 0, 3},
}

// Gradient computes the horizontal and vertical derivatives of g with the
// Scharr operator.
//
// Returns lx (d/dx, positive when brightness increases to the right) and ly
// (d/dy, positive when brightness increases downward). Border pixels use
// clamped edge values, so a constant image yields all-zero derivatives.
func Gradient(g *GrayImage) (lx, ly *GrayImage) {
	w, h := g.width, g.height
	lx = NewGrayImage(w, h)
	ly = NewGrayImage(w, h)
	const norm = 1.0 / 32.0

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					py := clamp(y+ky, 0, h-1)
					for kx := -1; kx <= 1; kx++ {
						px := clamp(x+kx, 0, w-1)
						v := float64(g.pix[py*w+px])
						gx += v * scharrX[ky+1][kx+1]
						// The vertical operator is the transpose of the horizontal one.
						gy += v * scharrX[kx+1][ky+1]
					}
				}
				lx.pix[y*w+x] = float32(gx * norm)
				ly.pix[y*w+x] = float32(gy * norm)
			}
		}
	})
	return lx, ly
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
