package estimate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ironsheep/vision-kernels-mcp/internal/geometry"
)

var (
	// ErrTooFewMatches is returned when there are not enough matches to
	// constrain all six pose parameters.
	ErrTooFewMatches = errors.New("estimate: too few matches")

	// ErrSingularSystem is returned when the normal equations cannot be solved,
	// typically because the world points are degenerate (collinear, coincident).
	ErrSingularSystem = errors.New("estimate: singular normal equations")
)

// MinMatches is the smallest number of 2D-3D matches RefineWorldToCamera accepts.
const MinMatches = 3

// RefineOptions controls RefineWorldToCamera.
type RefineOptions struct {
	// MaxIterations bounds the number of Gauss-Newton steps. Default 20.
	MaxIterations int

	// Tolerance stops the iteration once the update norm falls below it.
	// Default 1e-10.
	Tolerance float64
}

// Report summarizes a refinement run.
type Report struct {
	Iterations  int     `json:"iterations"`
	InitialCost float64 `json:"initial_cost"`
	FinalCost   float64 `json:"final_cost"`
	Converged   bool    `json:"converged"`
}

// RefineWorldToCamera improves pose by Gauss-Newton on the bearing error of
// every match.
//
// The error of a match is unit(transform(world)) - bearing, three rows per
// match, and the cost is half its squared norm summed over all matches. Each
// step solves the normal equations for a 6-vector update applied with
// Perturb, so the pose Jacobian from TransformJacobianSelf is exact for it.
// A step that would increase the cost is rejected and ends the iteration;
// the run still counts as converged when that step was below Tolerance.
func RefineWorldToCamera(pose geometry.WorldToCamera, matches []geometry.FeatureWorldMatch, opts RefineOptions) (geometry.WorldToCamera, Report, error) {
	if len(matches) < MinMatches {
		return pose, Report{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewMatches, len(matches), MinMatches)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 20
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-10
	}

	cost := bearingCost(pose, matches)
	report := Report{InitialCost: cost, FinalCost: cost}

	for report.Iterations < opts.MaxIterations {
		delta, err := gaussNewtonStep(pose, matches)
		if err != nil {
			return pose, report, err
		}
		report.Iterations++

		small := norm(delta) < opts.Tolerance
		candidate := pose.Perturb(delta)
		next := bearingCost(candidate, matches)
		if next > cost {
			// At the optimum rounding alone can raise the cost.
			report.Converged = small
			break
		}
		pose, cost = candidate, next
		report.FinalCost = cost

		if small {
			report.Converged = true
			break
		}
	}
	return pose, report, nil
}

// gaussNewtonStep solves (JᵀJ) δ = -Jᵀr for the stacked bearing errors.
func gaussNewtonStep(pose geometry.WorldToCamera, matches []geometry.FeatureWorldMatch) (geometry.SE3, error) {
	jtj := mat.NewDense(6, 6, nil)
	jtr := mat.NewDense(6, 1, nil)

	for _, m := range matches {
		out, jSelf := pose.TransformJacobianSelf(m.World)
		v := r3.Vec{X: out[0], Y: out[1], Z: out[2]}
		n := r3.Norm(v)
		if n == 0 || math.IsNaN(n) {
			continue
		}
		u := r3.Scale(1/n, v)
		r := r3.Sub(u, m.Bearing)

		// d unit(v)/dv = (I - u uᵀ)/|v|
		dUnit := mat.NewDense(3, 3, []float64{
			1 - u.X*u.X, -u.X * u.Y, -u.X * u.Z,
			-u.Y * u.X, 1 - u.Y*u.Y, -u.Y * u.Z,
			-u.Z * u.X, -u.Z * u.Y, 1 - u.Z*u.Z,
		})
		dUnit.Scale(1/n, dUnit)

		var j mat.Dense
		j.Mul(dUnit, jSelf.Slice(0, 3, 0, 6))

		var jtjI, jtrI mat.Dense
		jtjI.Mul(j.T(), &j)
		jtrI.Mul(j.T(), mat.NewDense(3, 1, []float64{r.X, r.Y, r.Z}))
		jtj.Add(jtj, &jtjI)
		jtr.Add(jtr, &jtrI)
	}

	var x mat.Dense
	if err := x.Solve(jtj, jtr); err != nil {
		return geometry.SE3{}, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	var delta geometry.SE3
	for i := range delta {
		delta[i] = -x.At(i, 0)
	}
	return delta, nil
}

// bearingCost is half the summed squared bearing error.
func bearingCost(pose geometry.WorldToCamera, matches []geometry.FeatureWorldMatch) float64 {
	errs := Residuals(pose, matches, func(m geometry.FeatureWorldMatch, p geometry.WorldToCamera) float64 {
		d := r3.Sub(p.Transform(m.World).Bearing(), m.Bearing)
		return r3.Norm2(d)
	})
	var sum float64
	for _, e := range errs {
		sum += e
	}
	return sum / 2
}

func norm(s geometry.SE3) float64 {
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}
