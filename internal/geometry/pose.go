package geometry

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a rigid transform that maps points of frame In to frame Out.
//
// The frame pair is part of the type: Inverse swaps it and Compose only
// accepts poses whose frames chain, so mixing up a world pose and a camera
// pose is a compile error rather than a silent bug. Poses are small values
// and are safe to copy and share between goroutines.
type Pose[In, Out Point] struct {
	iso Isometry
}

type (
	// WorldToCamera maps world points into a camera frame. This is the
	// pose of the world relative to the camera.
	WorldToCamera = Pose[WorldPoint, CameraPoint]

	// CameraToWorld maps camera points into world coordinates. Its
	// translation is the camera center in the world.
	CameraToWorld = Pose[CameraPoint, WorldPoint]

	// CameraToCamera maps points from camera A's frame into camera B's.
	CameraToCamera = Pose[CameraPoint, CameraPoint]

	// WorldToWorld maps points between two reconstructions of one scene.
	WorldToWorld = Pose[WorldPoint, WorldPoint]
)

// Identity returns the pose with no rotation and no translation.
func Identity[In, Out Point]() Pose[In, Out] {
	return Pose[In, Out]{iso: IdentityIsometry()}
}

// FromIsometry tags iso with a frame pair.
func FromIsometry[In, Out Point](iso Isometry) Pose[In, Out] {
	return Pose[In, Out]{iso: iso}
}

// FromParts builds a pose that rotates by rotation and then translates.
func FromParts[In, Out Point](translation r3.Vec, rotation Rotation) Pose[In, Out] {
	return Pose[In, Out]{iso: Isometry{Rotation: rotation, Translation: translation}}
}

// FromSE3 builds a pose from its 6-parameter form. The inverse is Pose.SE3.
func FromSE3[In, Out Point](s SE3) Pose[In, Out] {
	return Pose[In, Out]{iso: IsometryFromSE3(s)}
}

// Isometry returns the untagged transform.
func (p Pose[In, Out]) Isometry() Isometry { return p.iso }

// Rotation returns the rotation part.
func (p Pose[In, Out]) Rotation() Rotation { return p.iso.Rotation }

// Translation returns the translation part.
func (p Pose[In, Out]) Translation() r3.Vec { return p.iso.Translation }

// Inverse returns the pose mapping Out back to In.
func (p Pose[In, Out]) Inverse() Pose[Out, In] {
	return Pose[Out, In]{iso: p.iso.Inverse()}
}

// Scale multiplies the translation by factor. Reconstructions known only up
// to scale use this to change units; the rotation is untouched.
func (p Pose[In, Out]) Scale(factor float64) Pose[In, Out] {
	return Pose[In, Out]{iso: p.iso.ScaleTranslation(factor)}
}

// Homogeneous returns the 4x4 matrix of the pose.
func (p Pose[In, Out]) Homogeneous() *mat.Dense { return p.iso.Homogeneous() }

// SE3 returns the 6-parameter form: translation then so(3) rotation.
func (p Pose[In, Out]) SE3() SE3 { return p.iso.SE3() }

// Transform maps pt from frame In to frame Out.
func (p Pose[In, Out]) Transform(pt In) Out {
	return Out(transformOutput(p.iso, [4]float64(pt)))
}

// TransformJacobians maps pt and returns the 4x4 Jacobian of the output with
// respect to the input point and the 4x6 Jacobian of the output with respect
// to the pose (translation columns first).
//
// The pose Jacobian is the derivative of the output under Perturb.
func (p Pose[In, Out]) TransformJacobians(pt In) (Out, *mat.Dense, *mat.Dense) {
	rotated, out := transformRotatedOutput(p.iso, [4]float64(pt))
	return Out(out), jacobianInput(p.iso), jacobianSelf(p.iso, rotated, out)
}

// TransformJacobianInput maps pt and returns only the input Jacobian.
func (p Pose[In, Out]) TransformJacobianInput(pt In) (Out, *mat.Dense) {
	return Out(transformOutput(p.iso, [4]float64(pt))), jacobianInput(p.iso)
}

// TransformJacobianSelf maps pt and returns only the pose Jacobian.
func (p Pose[In, Out]) TransformJacobianSelf(pt In) (Out, *mat.Dense) {
	rotated, out := transformRotatedOutput(p.iso, [4]float64(pt))
	return Out(out), jacobianSelf(p.iso, rotated, out)
}

// Perturb applies a local update: the translation moves by delta[0:3] and the
// rotation is premultiplied by exp(delta[3:6]). At delta = 0 its derivative is
// the pose Jacobian returned by TransformJacobianSelf.
func (p Pose[In, Out]) Perturb(delta SE3) Pose[In, Out] {
	return Pose[In, Out]{iso: Isometry{
		Rotation:    delta.Rotation().Exp().Mul(p.iso.Rotation),
		Translation: r3.Add(p.iso.Translation, delta.Translation()),
	}}
}

// Compose chains two poses: the result applies first and then second.
func Compose[A, B, C Point](first Pose[A, B], second Pose[B, C]) Pose[A, C] {
	return Pose[A, C]{iso: second.iso.Mul(first.iso)}
}

// WorldToWorldFromCameraPoses derives the transform between two
// reconstructions from the pose of one camera in each: a is the camera in
// reconstruction A, b the same camera in reconstruction B. The result maps
// A's world points into B's.
func WorldToWorldFromCameraPoses(a, b WorldToCamera) WorldToWorld {
	return Compose(a, b.Inverse())
}
