package estimate

import (
	"github.com/anthonynsimon/bild/parallel"
)

// Residuals evaluates fn for every datum against one candidate model.
//
// The data are split into contiguous blocks scored on separate goroutines.
// fn must be safe to call concurrently; the residual methods in the geometry
// package are pure and can be passed as method expressions, for example
// geometry.FeatureMatch.Residual. out[i] corresponds to data[i].
func Residuals[M, D any](model M, data []D, fn func(D, M) float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	parallel.Line(len(data), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = fn(data[i], model)
		}
	})
	return out
}

// CountInliers returns how many residuals are strictly below threshold.
// NaN residuals never count.
func CountInliers(residuals []float64, threshold float64) int {
	n := 0
	for _, r := range residuals {
		if r < threshold {
			n++
		}
	}
	return n
}

// InlierMask reports for each residual whether it is below threshold.
func InlierMask(residuals []float64, threshold float64) []bool {
	mask := make([]bool, len(residuals))
	for i, r := range residuals {
		mask[i] = r < threshold
	}
	return mask
}
