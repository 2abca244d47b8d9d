package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNotRotation is returned when a matrix is not orthonormal with determinant +1.
var ErrNotRotation = errors.New("geometry: matrix is not a proper rotation")

// rotationTolerance bounds |R*Rᵀ - I| and |det R - 1| accepted by NewRotation.
const rotationTolerance = 1e-6

// smallAngle2 is the squared angle below which Exp switches to Taylor terms.
const smallAngle2 = 1e-10

// Rotation is a 3x3 rotation matrix stored row-major.
type Rotation [9]float64

// IdentityRotation is the rotation that leaves every vector unchanged.
var IdentityRotation = Rotation{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// NewRotation validates m and returns it as a Rotation.
func NewRotation(m [9]float64) (Rotation, error) {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Rotation{}, fmt.Errorf("%w: non-finite entry", ErrNotRotation)
		}
	}
	r := Rotation(m)
	d := r.Dense()

	var rrt mat.Dense
	rrt.Mul(d, d.T())
	if !mat.EqualApprox(&rrt, IdentityRotation.Dense(), rotationTolerance) {
		return Rotation{}, fmt.Errorf("%w: rows are not orthonormal", ErrNotRotation)
	}
	if det := mat.Det(d); math.Abs(det-1) > rotationTolerance {
		return Rotation{}, fmt.Errorf("%w: determinant %g", ErrNotRotation, det)
	}
	return r, nil
}

// At returns the element at row i, column j.
func (r Rotation) At(i, j int) float64 {
	return r[3*i+j]
}

// Apply rotates v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// Mul returns r*o, the rotation that applies o first and then r.
func (r Rotation) Mul(o Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = r[3*i]*o[j] + r[3*i+1]*o[3+j] + r[3*i+2]*o[6+j]
		}
	}
	return out
}

// Transpose returns the inverse rotation.
func (r Rotation) Transpose() Rotation {
	return Rotation{
		r[0], r[3], r[6],
		r[1], r[4], r[7],
		r[2], r[5], r[8],
	}
}

// Det returns the determinant, which is 1 for a proper rotation.
func (r Rotation) Det() float64 {
	return mat.Det(r.Dense())
}

// Dense returns a copy of r as a gonum matrix.
func (r Rotation) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, r[:])
	return mat.NewDense(3, 3, data)
}

// Log returns the so(3) vector of r.
func (r Rotation) Log() Skew3 {
	return LogRotation(r)
}

// Skew3 is an so(3) element: a rotation axis scaled by the angle in radians.
type Skew3 r3.Vec

// Vec returns s as a plain vector.
func (s Skew3) Vec() r3.Vec { return r3.Vec(s) }

// Angle returns the rotation angle in radians.
func (s Skew3) Angle() float64 { return r3.Norm(r3.Vec(s)) }

// Hat returns the cross-product matrix [s]x, so that Hat()*v == s×v.
func (s Skew3) Hat() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -s.Z, s.Y,
		s.Z, 0, -s.X,
		-s.Y, s.X, 0,
	})
}

// Exp maps s to a rotation with the Rodrigues formula
//
//	R = I + a[s]x + b[s]x²,  a = sin θ/θ,  b = (1-cos θ)/θ²
//
// falling back to the Taylor expansions of a and b for tiny angles.
func (s Skew3) Exp() Rotation {
	theta2 := r3.Norm2(r3.Vec(s))
	var a, b float64
	if theta2 < smallAngle2 {
		a = 1 - theta2/6
		b = 0.5 - theta2/24
	} else {
		theta := math.Sqrt(theta2)
		a = math.Sin(theta) / theta
		b = (1 - math.Cos(theta)) / theta2
	}

	x, y, z := s.X, s.Y, s.Z
	// [s]x² = s sᵀ - θ² I
	return Rotation{
		1 + b*(x*x-theta2), -a*z + b*x*y, a*y + b*x*z,
		a*z + b*x*y, 1 + b*(y*y-theta2), -a*x + b*y*z,
		-a*y + b*x*z, a*x + b*y*z, 1 + b*(z*z-theta2),
	}
}

// LogRotation returns the so(3) vector whose exponential is r.
//
// The rotation is converted to a unit quaternion first, which keeps the
// result accurate both for tiny angles and for angles close to π.
func LogRotation(r Rotation) Skew3 {
	w, v := quaternion(r)
	n := r3.Norm(v)
	if n < 1e-12 {
		// 2*atan(n/w)/n ≈ (2/w)(1 - n²/(3w²))
		return Skew3(r3.Scale(2/w*(1-n*n/(3*w*w)), v))
	}
	theta := 2 * math.Atan2(n, w)
	return Skew3(r3.Scale(theta/n, v))
}

// quaternion converts r to a unit quaternion (w, v) with w >= 0.
func quaternion(r Rotation) (float64, r3.Vec) {
	var w float64
	var v r3.Vec
	trace := r[0] + r[4] + r[8]
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1)
		w = s / 4
		v = r3.Vec{X: (r[7] - r[5]) / s, Y: (r[2] - r[6]) / s, Z: (r[3] - r[1]) / s}
	case r[0] > r[4] && r[0] > r[8]:
		s := 2 * math.Sqrt(1+r[0]-r[4]-r[8])
		w = (r[7] - r[5]) / s
		v = r3.Vec{X: s / 4, Y: (r[1] + r[3]) / s, Z: (r[2] + r[6]) / s}
	case r[4] > r[8]:
		s := 2 * math.Sqrt(1+r[4]-r[0]-r[8])
		w = (r[2] - r[6]) / s
		v = r3.Vec{X: (r[1] + r[3]) / s, Y: s / 4, Z: (r[5] + r[7]) / s}
	default:
		s := 2 * math.Sqrt(1+r[8]-r[0]-r[4])
		w = (r[3] - r[1]) / s
		v = r3.Vec{X: (r[2] + r[6]) / s, Y: (r[5] + r[7]) / s, Z: s / 4}
	}
	if w < 0 {
		w, v = -w, r3.Scale(-1, v)
	}
	norm := math.Sqrt(w*w + r3.Norm2(v))
	return w / norm, r3.Scale(1/norm, v)
}

// SkewJacobianSelf returns the derivative of exp(δ)·y with respect to δ at
// δ = 0. It equals -[y]x, the transposed cross-product matrix of y.
func SkewJacobianSelf(y r3.Vec) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, y.Z, -y.Y,
		-y.Z, 0, y.X,
		y.Y, -y.X, 0,
	})
}
