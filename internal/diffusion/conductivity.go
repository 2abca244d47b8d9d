package diffusion

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/vision-kernels-mcp/internal/imaging"
)

// Conductivity selects the diffusivity function g(|∇L|²/k²).
type Conductivity string

const (
	// PeronaMalikG1 is exp(-|∇L|²/k²). It favors high-contrast edges.
	PeronaMalikG1 Conductivity = "pm_g1"

	// PeronaMalikG2 is 1/(1+|∇L|²/k²). It favors wide regions over small ones.
	PeronaMalikG2 Conductivity = "pm_g2"

	// Weickert is 1-exp(-3.315/(|∇L|²/k²)^4), smoothing inside regions much
	// more strongly than across edges.
	Weickert Conductivity = "weickert"

	// Charbonnier is 1/sqrt(1+|∇L|²/k²).
	Charbonnier Conductivity = "charbonnier"
)

// Defaults for ContrastFactor.
const (
	DefaultContrastPercentile = 0.7
	DefaultContrastBins       = 300
	DefaultContrastSigma      = 1.0

	// FallbackContrast is returned when the gradient histogram never reaches the
	// requested percentile, which happens for flat images.
	FallbackContrast = 0.03
)

// ParseConductivity converts a tool argument into a Conductivity.
// An empty string selects PeronaMalikG2.
func ParseConductivity(s string) (Conductivity, error) {
	switch Conductivity(s) {
	case "":
		return PeronaMalikG2, nil
	case PeronaMalikG1, PeronaMalikG2, Weickert, Charbonnier:
		return Conductivity(s), nil
	default:
		return "", fmt.Errorf("unknown conductivity: %s", s)
	}
}

// Eval returns g for the squared gradient magnitude grad2 and contrast k.
func (c Conductivity) Eval(grad2, k float64) float64 {
	d := grad2 / (k * k)
	switch c {
	case PeronaMalikG1:
		return math.Exp(-d)
	case Weickert:
		if d == 0 {
			return 1
		}
		return 1 - math.Exp(-3.315/(d*d*d*d))
	case Charbonnier:
		return 1 / math.Sqrt(1+d)
	default:
		return 1 / (1 + d)
	}
}

// ComputeFlow fills dst with the conductivity of every pixel given the
// image derivatives lx and ly.
//
// Returns ErrDimensionMismatch if the buffers differ in size and an error if
// k is not positive.
func ComputeFlow(dst, lx, ly *imaging.GrayImage, k float64, kind Conductivity) error {
	if !imaging.SameSize(dst, lx) || !imaging.SameSize(dst, ly) {
		return fmt.Errorf("%w: flow %dx%d, lx %dx%d, ly %dx%d", ErrDimensionMismatch,
			dst.Width(), dst.Height(), lx.Width(), lx.Height(), ly.Width(), ly.Height())
	}
	if !(k > 0) || math.IsInf(k, 0) {
		return fmt.Errorf("contrast factor must be positive, got %g", k)
	}

	parallel.Line(dst.Height(), func(start, end int) {
		for y := start; y < end; y++ {
			out := dst.Row(y)
			rx := lx.Row(y)
			ry := ly.Row(y)
			for x := range out {
				gx, gy := float64(rx[x]), float64(ry[x])
				out[x] = float32(kind.Eval(gx*gx+gy*gy, k))
			}
		}
	})
	return nil
}

// ContrastFactor estimates the contrast parameter k as a percentile of the
// gradient magnitude histogram of img after Gaussian smoothing.
//
// Parameters:
//   - img: Luminance image, at least 3x3.
//   - percentile: Fraction of non-zero gradients that should fall below k, in (0,1].
//   - sigma: Smoothing applied before differentiation.
//   - bins: Number of histogram bins.
//
// Border pixels are excluded from the histogram. FallbackContrast is returned
// when the image has no gradient at all.
func ContrastFactor(img *imaging.GrayImage, percentile, sigma float64, bins int) (float64, error) {
	if img.Width() < 3 || img.Height() < 3 {
		return 0, fmt.Errorf("%w: got %dx%d", ErrTooSmall, img.Width(), img.Height())
	}
	if !(percentile > 0 && percentile <= 1) {
		return 0, fmt.Errorf("percentile must be in (0,1], got %g", percentile)
	}
	if bins <= 0 {
		return 0, fmt.Errorf("bins must be positive, got %d", bins)
	}

	lx, ly := imaging.Gradient(imaging.GaussianSmooth(img, sigma))
	w, h := img.Width(), img.Height()

	magnitude := func(x, y int) float64 {
		gx, gy := float64(lx.Get(x, y)), float64(ly.Get(x, y))
		return math.Sqrt(gx*gx + gy*gy)
	}

	var hmax float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			hmax = math.Max(hmax, magnitude(x, y))
		}
	}
	if hmax == 0 {
		return FallbackContrast, nil
	}

	hist := make([]int, bins)
	var points int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			m := magnitude(x, y)
			if m == 0 {
				continue
			}
			bin := int(math.Floor(float64(bins) * m / hmax))
			if bin == bins {
				bin--
			}
			hist[bin]++
			points++
		}
	}

	threshold := int(float64(points) * percentile)
	var count, k int
	for k = 0; count < threshold && k < bins; k++ {
		count += hist[k]
	}
	if count < threshold {
		return FallbackContrast, nil
	}
	return hmax * float64(k) / float64(bins), nil
}
