package diffusion

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/ironsheep/vision-kernels-mcp/internal/imaging"
)

var (
	// ErrTooSmall is returned when an image is narrower or shorter than 2 pixels.
	ErrTooSmall = errors.New("diffusion: image must be at least 2x2")

	// ErrDimensionMismatch is returned when the buffers of a step differ in size.
	ErrDimensionMismatch = errors.New("diffusion: buffer dimensions differ")

	// ErrInvalidStepSize is returned for a non-positive or non-finite step size.
	ErrInvalidStepSize = errors.New("diffusion: step size must be positive and finite")
)

// CheckStepSize returns ErrInvalidStepSize unless dt is positive and fits in
// the float32 that CalculateStep narrows it to.
func CheckStepSize(dt float64) error {
	if !(dt > 0) || dt > math.MaxFloat32 {
		return fmt.Errorf("%w: got %g", ErrInvalidStepSize, dt)
	}
	return nil
}

// EvolutionStep holds the three same-sized buffers of one scale level.
//
// Lt is the evolving luminance image and is updated in place by CalculateStep.
// Lflow is the conductivity field; it is only read during a step and is
// refreshed between steps by ComputeFlow. Lstep is scratch space that every
// step overwrites completely.
type EvolutionStep struct {
	Lt    *imaging.GrayImage
	Lflow *imaging.GrayImage
	Lstep *imaging.GrayImage
}

// NewEvolutionStep wraps lt and allocates matching conductivity and scratch buffers.
// The conductivity starts at zero, which makes a step a no-op until ComputeFlow runs.
func NewEvolutionStep(lt *imaging.GrayImage) (*EvolutionStep, error) {
	step := &EvolutionStep{
		Lt:    lt,
		Lflow: imaging.NewGrayImage(lt.Width(), lt.Height()),
		Lstep: imaging.NewGrayImage(lt.Width(), lt.Height()),
	}
	if err := step.Validate(); err != nil {
		return nil, err
	}
	return step, nil
}

// Validate checks the preconditions of CalculateStep.
func (s *EvolutionStep) Validate() error {
	if s.Lt == nil || s.Lflow == nil || s.Lstep == nil {
		return fmt.Errorf("%w: nil buffer", ErrDimensionMismatch)
	}
	if s.Lt.Width() < 2 || s.Lt.Height() < 2 {
		return fmt.Errorf("%w: got %dx%d", ErrTooSmall, s.Lt.Width(), s.Lt.Height())
	}
	if !imaging.SameSize(s.Lt, s.Lflow) || !imaging.SameSize(s.Lt, s.Lstep) {
		return fmt.Errorf("%w: image %dx%d, flow %dx%d, step %dx%d", ErrDimensionMismatch,
			s.Lt.Width(), s.Lt.Height(), s.Lflow.Width(), s.Lflow.Height(), s.Lstep.Width(), s.Lstep.Height())
	}
	if overlaps(s.Lstep.Pix(), s.Lt.Pix()) {
		return fmt.Errorf("%w: image and scratch share storage", ErrDimensionMismatch)
	}
	if overlaps(s.Lstep.Pix(), s.Lflow.Pix()) {
		return fmt.Errorf("%w: conductivity and scratch share storage", ErrDimensionMismatch)
	}
	return nil
}

// overlaps reports whether a and b share any backing memory.
func overlaps(a, b []float32) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	const size = unsafe.Sizeof(float32(0))
	aStart := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	bStart := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return aStart < bStart+uintptr(len(b))*size && bStart < aStart+uintptr(len(a))*size
}

// CalculateStep performs one explicit nonlinear diffusion step in place.
//
// For every pixel the update is
//
//	Lstep = 0.5 * dt * (xPos - xNeg + yPos - yNeg)
//
// where each term is the flux across one edge, (c_a + c_b) * (L_b - L_a),
// taken from the pixel toward its right and lower neighbors (xPos, yPos) and
// from its left and upper neighbors toward it (xNeg, yNeg). The factor 0.5
// compensates for every edge being visited from both of its endpoints.
// Terms that would need a neighbor outside the image are omitted. Once Lstep
// is fully populated it is added to Lt.
//
// stepSize is narrowed to float32 before use.
//
// CalculateStep panics if the step fails Validate: mismatched buffers are a
// programming error, not a recoverable condition.
func CalculateStep(step *EvolutionStep, stepSize float64) {
	if err := step.Validate(); err != nil {
		panic(err)
	}

	ld := step.Lt.Pix()
	c := step.Lflow.Pix()
	lstep := step.Lstep.Pix()
	w := step.Lt.Width()
	h := step.Lt.Height()
	half := 0.5 * float32(stepSize)

	// Interior
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			xPos := edgeFlux(c, ld, i, i+1)
			xNeg := edgeFlux(c, ld, i-1, i)
			yPos := edgeFlux(c, ld, i, i+w)
			yNeg := edgeFlux(c, ld, i-w, i)
			lstep[i] = float32(half * (xPos - xNeg + yPos - yNeg))
		}
	}

	// Top and bottom rows, corners included
	for x := 0; x < w; x++ {
		lstep[x] = boundaryUpdate(c, ld, w, h, x, 0, half)
		lstep[(h-1)*w+x] = boundaryUpdate(c, ld, w, h, x, h-1, half)
	}

	// Left and right columns
	for y := 1; y < h-1; y++ {
		lstep[y*w] = boundaryUpdate(c, ld, w, h, 0, y, half)
		lstep[y*w+w-1] = boundaryUpdate(c, ld, w, h, w-1, y, half)
	}

	for i := range ld {
		ld[i] += lstep[i]
	}
}

// edgeFlux is the flux across the edge from pixel a to pixel b.
// The conversion keeps the product from being fused into a later addition.
func edgeFlux(c, l []float32, a, b int) float32 {
	return float32((c[a] + c[b]) * (l[b] - l[a]))
}

// boundaryUpdate evaluates the reduced stencil for a border pixel. The terms
// are accumulated in the same order as the interior stencil, skipping those
// whose neighbor does not exist.
func boundaryUpdate(c, l []float32, w, h, x, y int, half float32) float32 {
	i := y*w + x
	var sum float32
	if x < w-1 {
		sum += edgeFlux(c, l, i, i+1)
	}
	if x > 0 {
		sum -= edgeFlux(c, l, i-1, i)
	}
	if y < h-1 {
		sum += edgeFlux(c, l, i, i+w)
	}
	if y > 0 {
		sum -= edgeFlux(c, l, i-w, i)
	}
	return float32(half * sum)
}
