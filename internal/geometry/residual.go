package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DegenerateResidual is reported for a match whose geometry cannot be scored:
// NaN from vanishing cross products or zero-length points, or bearings that
// point into opposite half-spaces. Estimators should treat it as an outlier.
//
// TODO: report chirality failures separately from NaN geometry once an
// estimator needs to tell them apart.
const DegenerateResidual = 1.0

// FeatureWorldMatch pairs the unit bearing of a keypoint with the world
// point it observes.
type FeatureWorldMatch struct {
	Bearing r3.Vec     `json:"bearing"`
	World   WorldPoint `json:"world"`
}

// Residual scores the match against pose as 1 - cos(angle) between the
// observed bearing and the bearing of the transformed world point. It is zero
// for a perfect fit and at most 2. DegenerateResidual is returned when the
// point lands on the camera center and has no bearing.
func (m FeatureWorldMatch) Residual(pose WorldToCamera) float64 {
	observed := pose.Transform(m.World).Bearing()
	residual := 1 - r3.Dot(m.Bearing, observed)
	if math.IsNaN(residual) {
		return DegenerateResidual
	}
	return residual
}

// FeatureMatch pairs the bearings of one feature observed by camera A and camera B.
type FeatureMatch struct {
	A r3.Vec `json:"a"`
	B r3.Vec `json:"b"`
}

// Residual scores the match against the relative pose from camera A to
// camera B as the sine of the angle between a bearing and the epipolar plane
// of the other.
//
// A is first rotated into B's frame. The bearing whose cross product with
// the translation is smaller is projected onto the epipolar plane normal of
// the other one, which keeps the divisor away from zero. DegenerateResidual
// is returned when the result is NaN or when the rotated bearings disagree in
// sign, which would put the point behind a camera.
func (m FeatureMatch) Residual(pose CameraToCamera) float64 {
	a := pose.Rotation().Apply(m.A)
	return angularResidual(a, m.B, pose.Translation())
}

func angularResidual(a, b, t r3.Vec) float64 {
	crossA := r3.Cross(a, t)
	crossB := r3.Cross(b, t)
	crossA2 := r3.Norm2(crossA)
	crossB2 := r3.Norm2(crossB)

	var residual float64
	if crossA2 < crossB2 {
		residual = math.Abs(r3.Dot(a, r3.Scale(1/math.Sqrt(crossB2), crossB)))
	} else {
		residual = math.Abs(r3.Dot(b, r3.Scale(1/math.Sqrt(crossA2), crossA)))
	}

	if math.IsNaN(residual) || math.Signbit(r3.Dot(a, b)) {
		return DegenerateResidual
	}
	return residual
}
