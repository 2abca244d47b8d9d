package geometry

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// SE3 is the 6-parameter form of a rigid transform: translation in the
// first three slots, the so(3) vector of the rotation in the last three.
type SE3 [6]float64

// NewSE3 packs a translation and a rotation vector.
func NewSE3(translation r3.Vec, rotation Skew3) SE3 {
	return SE3{translation.X, translation.Y, translation.Z, rotation.X, rotation.Y, rotation.Z}
}

// Translation returns the first three components.
func (s SE3) Translation() r3.Vec {
	return r3.Vec{X: s[0], Y: s[1], Z: s[2]}
}

// Rotation returns the last three components.
func (s SE3) Rotation() Skew3 {
	return Skew3{X: s[3], Y: s[4], Z: s[5]}
}

// Add returns the component-wise sum s+d.
func (s SE3) Add(d SE3) SE3 {
	for i := range s {
		s[i] += d[i]
	}
	return s
}

// Isometry is a rotation followed by a translation: x -> R*x + t.
type Isometry struct {
	Rotation    Rotation
	Translation r3.Vec
}

// IdentityIsometry returns the transform that leaves every point unchanged.
func IdentityIsometry() Isometry {
	return Isometry{Rotation: IdentityRotation}
}

// IsometryFromSE3 builds the isometry with translation s[0:3] and rotation exp(s[3:6]).
func IsometryFromSE3(s SE3) Isometry {
	return Isometry{Rotation: s.Rotation().Exp(), Translation: s.Translation()}
}

// SE3 returns the 6-parameter form of i.
func (i Isometry) SE3() SE3 {
	return NewSE3(i.Translation, LogRotation(i.Rotation))
}

// Inverse returns the isometry that undoes i.
func (i Isometry) Inverse() Isometry {
	rt := i.Rotation.Transpose()
	return Isometry{Rotation: rt, Translation: r3.Scale(-1, rt.Apply(i.Translation))}
}

// Mul returns i*o, the isometry that applies o first and then i.
func (i Isometry) Mul(o Isometry) Isometry {
	return Isometry{
		Rotation:    i.Rotation.Mul(o.Rotation),
		Translation: r3.Add(i.Rotation.Apply(o.Translation), i.Translation),
	}
}

// Apply transforms a Euclidean point.
func (i Isometry) Apply(v r3.Vec) r3.Vec {
	return r3.Add(i.Rotation.Apply(v), i.Translation)
}

// ApplyHomogeneous multiplies the homogeneous matrix of i with p. The
// translation is weighted by p[3], so points at infinity are only rotated.
func (i Isometry) ApplyHomogeneous(p [4]float64) [4]float64 {
	v := i.Rotation.Apply(r3.Vec{X: p[0], Y: p[1], Z: p[2]})
	return [4]float64{
		v.X + i.Translation.X*p[3],
		v.Y + i.Translation.Y*p[3],
		v.Z + i.Translation.Z*p[3],
		p[3],
	}
}

// Homogeneous returns the 4x4 matrix [R t; 0 1].
func (i Isometry) Homogeneous() *mat.Dense {
	r, t := i.Rotation, i.Translation
	return mat.NewDense(4, 4, []float64{
		r[0], r[1], r[2], t.X,
		r[3], r[4], r[5], t.Y,
		r[6], r[7], r[8], t.Z,
		0, 0, 0, 1,
	})
}

// TranslationHomogeneous returns the 4x4 matrix [I t; 0 1].
func (i Isometry) TranslationHomogeneous() *mat.Dense {
	t := i.Translation
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, t.X,
		0, 1, 0, t.Y,
		0, 0, 1, t.Z,
		0, 0, 0, 1,
	})
}

// ScaleTranslation multiplies the translation by f and leaves the rotation alone.
func (i Isometry) ScaleTranslation(f float64) Isometry {
	i.Translation = r3.Scale(f, i.Translation)
	return i
}

// EqualApprox reports whether every entry of the homogeneous matrices of i
// and o agree within tol.
func (i Isometry) EqualApprox(o Isometry, tol float64) bool {
	return mat.EqualApprox(i.Homogeneous(), o.Homogeneous(), tol)
}
