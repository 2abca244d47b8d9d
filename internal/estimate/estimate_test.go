package estimate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ironsheep/vision-kernels-mcp/internal/geometry"
)

// scene returns a pose and matches generated from points in front of the camera.
func scene(t *testing.T, rng *rand.Rand, n int) (geometry.WorldToCamera, []geometry.FeatureWorldMatch) {
	t.Helper()
	pose := geometry.FromParts[geometry.WorldPoint, geometry.CameraPoint](
		r3.Vec{X: 0.2, Y: -0.1, Z: 0.5},
		geometry.Skew3{X: 0.1, Y: 0.3, Z: -0.2}.Exp(),
	)
	toWorld := pose.Inverse()
	matches := make([]geometry.FeatureWorldMatch, n)
	for i := range matches {
		cam := r3.Vec{X: rng.Float64()*4 - 2, Y: rng.Float64()*4 - 2, Z: 4 + rng.Float64()*4}
		matches[i] = geometry.FeatureWorldMatch{
			Bearing: geometry.Bearing(cam),
			World:   geometry.WorldPoint(toWorld.Transform(geometry.NewCameraPoint(cam))),
		}
	}
	return pose, matches
}

func TestResiduals(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pose, matches := scene(t, rng, 500)

	got := Residuals(pose, matches, geometry.FeatureWorldMatch.Residual)
	require.Len(t, got, len(matches))
	for i, r := range got {
		assert.InDelta(t, 0, r, 1e-12, "match %d", i)
		assert.Equal(t, matches[i].Residual(pose), r)
	}

	assert.Empty(t, Residuals(pose, nil, geometry.FeatureWorldMatch.Residual))
}

func TestResidualsCameraToCamera(t *testing.T) {
	pose := geometry.FromParts[geometry.CameraPoint, geometry.CameraPoint](r3.Vec{X: 1}, geometry.IdentityRotation)
	matches := []geometry.FeatureMatch{
		{A: r3.Vec{Z: 1}, B: r3.Vec{Z: 1}},
		{A: r3.Vec{Z: 1}, B: r3.Vec{Z: -1}},
	}
	got := Residuals(pose, matches, geometry.FeatureMatch.Residual)
	assert.InDelta(t, 0, got[0], 1e-15)
	assert.Equal(t, geometry.DegenerateResidual, got[1])
}

func TestCountInliers(t *testing.T) {
	residuals := []float64{0, 0.001, 0.01, 0.5, 1, math.NaN()}
	assert.Equal(t, 2, CountInliers(residuals, 0.01))
	assert.Equal(t, 5, CountInliers(residuals, 2))
	assert.Equal(t, 0, CountInliers(nil, 1))
	assert.Equal(t, []bool{true, true, false, false, false, false}, InlierMask(residuals, 0.01))
}

func TestRefineWorldToCamera(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	truth, matches := scene(t, rng, 30)

	initial := truth.Perturb(geometry.SE3{0.05, -0.03, 0.04, 0.02, -0.01, 0.03})
	refined, report, err := RefineWorldToCamera(initial, matches, RefineOptions{})
	require.NoError(t, err)

	assert.Greater(t, report.Iterations, 0)
	assert.Less(t, report.FinalCost, report.InitialCost)
	assert.Less(t, report.FinalCost, 1e-12)
	assert.True(t, report.Converged)
	assert.True(t, refined.Isometry().EqualApprox(truth.Isometry(), 1e-6),
		"refined %+v, want %+v", refined.SE3(), truth.SE3())
}

func TestRefineWorldToCameraAtOptimum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	truth, matches := scene(t, rng, 10)

	refined, report, err := RefineWorldToCamera(truth, matches, RefineOptions{MaxIterations: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, report.Iterations, 5)
	assert.True(t, refined.Isometry().EqualApprox(truth.Isometry(), 1e-9))
}

func TestRefineWorldToCameraErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	truth, matches := scene(t, rng, 2)

	_, _, err := RefineWorldToCamera(truth, matches, RefineOptions{})
	require.ErrorIs(t, err, ErrTooFewMatches)

	// Every point sits on the optical center, so no match constrains the pose.
	origin := geometry.NewWorldPoint(r3.Vec{})
	degenerate := []geometry.FeatureWorldMatch{
		{Bearing: r3.Vec{Z: 1}, World: origin},
		{Bearing: r3.Vec{Z: 1}, World: origin},
		{Bearing: r3.Vec{Z: 1}, World: origin},
	}
	_, _, err = RefineWorldToCamera(geometry.Identity[geometry.WorldPoint, geometry.CameraPoint](), degenerate, RefineOptions{})
	require.ErrorIs(t, err, ErrSingularSystem)
}
