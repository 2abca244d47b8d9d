package geometry

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// The functions below hold the algebra shared by every Pose instantiation.
// They work on the bare isometry and raw homogeneous coordinates.

// transformOutput applies iso to the homogeneous point p.
func transformOutput(iso Isometry, p [4]float64) [4]float64 {
	return iso.ApplyHomogeneous(p)
}

// transformRotatedOutput returns the rotated-but-not-translated Euclidean
// part of p along with the full output.
func transformRotatedOutput(iso Isometry, p [4]float64) (r3.Vec, [4]float64) {
	rotated := iso.Rotation.Apply(r3.Vec{X: p[0], Y: p[1], Z: p[2]})
	return rotated, transformOutput(iso, p)
}

// jacobianInput is d(output)/d(input). The transform is affine in the
// homogeneous input, so this is the homogeneous matrix itself.
func jacobianInput(iso Isometry) *mat.Dense {
	return iso.Homogeneous()
}

// jacobianSelf is d(output)/d(pose) as a 4x6 matrix with one row per output
// coordinate and the columns ordered translation then rotation.
//
// The translation block is the identity scaled by the output weight. The
// rotation block is the translation matrix applied to the derivative of the
// exponential map at the rotated point. The homogeneous weight of the
// output does not depend on the pose, so the last row is zero.
func jacobianSelf(iso Isometry, rotated r3.Vec, output [4]float64) *mat.Dense {
	w := output[3]

	dRot := mat.NewDense(4, 3, nil)
	dRot.Slice(0, 3, 0, 3).(*mat.Dense).Copy(SkewJacobianSelf(rotated))
	var dpds mat.Dense
	dpds.Mul(iso.TranslationHomogeneous(), dRot)

	j := mat.NewDense(4, 6, nil)
	for k := 0; k < 3; k++ {
		j.Set(k, k, w)
	}
	j.Slice(0, 3, 3, 6).(*mat.Dense).Copy(dpds.Slice(0, 3, 0, 3))
	return j
}
