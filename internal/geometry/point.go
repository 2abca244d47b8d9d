package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is the constraint satisfied by frame-tagged homogeneous points.
// The fourth component is the homogeneous weight; points at infinity have
// weight zero and still carry a direction.
type Point interface {
	~[4]float64
}

// WorldPoint is a homogeneous point expressed in world coordinates.
type WorldPoint [4]float64

// CameraPoint is a homogeneous point expressed in a camera frame:
// origin at the optical center, +Z forward, +Y down, +X right.
type CameraPoint [4]float64

// NewWorldPoint returns the finite world point at v.
func NewWorldPoint(v r3.Vec) WorldPoint {
	return WorldPoint{v.X, v.Y, v.Z, 1}
}

// NewCameraPoint returns the finite camera point at v.
func NewCameraPoint(v r3.Vec) CameraPoint {
	return CameraPoint{v.X, v.Y, v.Z, 1}
}

// Homogeneous returns the raw homogeneous coordinates.
func (p WorldPoint) Homogeneous() [4]float64 { return p }

// Point returns the Euclidean point, or false for a point at infinity.
func (p WorldPoint) Point() (r3.Vec, bool) { return euclidean(p) }

// Bearing returns the unit direction of p from the origin.
func (p WorldPoint) Bearing() r3.Vec { return bearing(p) }

// Homogeneous returns the raw homogeneous coordinates.
func (p CameraPoint) Homogeneous() [4]float64 { return p }

// Point returns the Euclidean point, or false for a point at infinity.
func (p CameraPoint) Point() (r3.Vec, bool) { return euclidean(p) }

// Bearing returns the unit ray from the optical center toward p.
func (p CameraPoint) Bearing() r3.Vec { return bearing(p) }

// Bearing normalizes v to unit length. The zero vector yields NaN components.
func Bearing(v r3.Vec) r3.Vec {
	return r3.Scale(1/r3.Norm(v), v)
}

func xyz[P Point](p P) r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

func fromXYZW[P Point](v r3.Vec, w float64) P {
	return P{v.X, v.Y, v.Z, w}
}

func euclidean[P Point](p P) (r3.Vec, bool) {
	if p[3] == 0 || math.IsNaN(p[3]) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/p[3], xyz(p)), true
}

func bearing[P Point](p P) r3.Vec {
	return Bearing(xyz(p))
}
