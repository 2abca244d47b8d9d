// Package diffusion advances a scale-space image by explicit nonlinear diffusion.
//
// The core is CalculateStep, one forward-Euler step of
//
//	dL/dt = div(c * grad(L))
//
// over a 2D grid, applied in place. The conductivity field c is recomputed
// between steps by ComputeFlow from the smoothed gradient of the current image,
// using one of the Perona-Malik style Conductivity functions and a contrast
// factor k (see ContrastFactor). Evolve strings the two together over a
// caller-supplied schedule of step sizes; deciding how many scale levels to
// build and which step sizes to use is left to the caller.
//
// # Boundary Handling
//
// Pixels on the image border use a reduced stencil that omits the missing
// neighbor, i.e. a zero-flux (Neumann) boundary. Nothing wraps around and
// nothing is extrapolated, so total luminance is conserved up to rounding.
//
// # Precision
//
// Images are float32. The step size is accepted as float64 and narrowed to
// float32 before the per-pixel multiply; all arithmetic after that point is
// float32.
//
// # Concurrency
//
// CalculateStep is single-threaded and touches only the buffers it is given.
// Independent EvolutionSteps may be advanced from different goroutines.
package diffusion
