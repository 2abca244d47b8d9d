package diffusion

import (
	"fmt"

	"github.com/ironsheep/vision-kernels-mcp/internal/imaging"
)

// EvolveOptions controls how the conductivity is refreshed between steps.
type EvolveOptions struct {
	// Conductivity is the diffusivity function. Defaults to PeronaMalikG2.
	Conductivity Conductivity

	// Contrast is the contrast factor k. Zero estimates it once from the input
	// image with ContrastFactor and the default percentile.
	Contrast float64

	// Sigma is the Gaussian smoothing applied before differentiating the
	// current image. Defaults to DefaultContrastSigma.
	Sigma float64

	// OnStep, if set, is called after every step with the step index and size.
	OnStep func(i int, stepSize float64)
}

// Evolve runs one CalculateStep per entry of schedule, refreshing Lflow from
// the smoothed current image before each step.
//
// The schedule is owned by the caller; Evolve does not choose step sizes or
// the number of levels. Returns the contrast factor that was used.
func Evolve(step *EvolutionStep, schedule []float64, opts EvolveOptions) (float64, error) {
	if err := step.Validate(); err != nil {
		return 0, err
	}
	for i, dt := range schedule {
		if err := CheckStepSize(dt); err != nil {
			return 0, fmt.Errorf("schedule[%d]: %w", i, err)
		}
	}
	if opts.Conductivity == "" {
		opts.Conductivity = PeronaMalikG2
	}
	if opts.Sigma == 0 {
		opts.Sigma = DefaultContrastSigma
	}

	k := opts.Contrast
	if k == 0 {
		var err error
		k, err = ContrastFactor(step.Lt, DefaultContrastPercentile, opts.Sigma, DefaultContrastBins)
		if err != nil {
			return 0, fmt.Errorf("failed to estimate contrast: %w", err)
		}
	}

	for i, dt := range schedule {
		lx, ly := imaging.Gradient(imaging.GaussianSmooth(step.Lt, opts.Sigma))
		if err := ComputeFlow(step.Lflow, lx, ly, k, opts.Conductivity); err != nil {
			return 0, fmt.Errorf("step %d: %w", i, err)
		}
		CalculateStep(step, dt)
		if opts.OnStep != nil {
			opts.OnStep(i, dt)
		}
	}
	return k, nil
}
