package geometry

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownPoseKind is returned by ParsePoseKind for an unrecognized name.
var ErrUnknownPoseKind = errors.New("geometry: unknown pose kind")

// PoseKind names one of the four frame pairs.
type PoseKind string

const (
	KindWorldToCamera  PoseKind = "world_to_camera"
	KindCameraToWorld  PoseKind = "camera_to_world"
	KindCameraToCamera PoseKind = "camera_to_camera"
	KindWorldToWorld   PoseKind = "world_to_world"
)

// PoseKinds lists every valid PoseKind.
var PoseKinds = []PoseKind{KindWorldToCamera, KindCameraToWorld, KindCameraToCamera, KindWorldToWorld}

// ParsePoseKind converts a name into a PoseKind.
func ParsePoseKind(s string) (PoseKind, error) {
	for _, k := range PoseKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPoseKind, s)
}

// Frame names the coordinate system a point is expressed in.
type Frame string

const (
	FrameWorld  Frame = "world"
	FrameCamera Frame = "camera"
)

// Frames returns the source and destination frames of k.
func (k PoseKind) Frames() (in, out Frame) {
	switch k {
	case KindWorldToCamera:
		return FrameWorld, FrameCamera
	case KindCameraToWorld:
		return FrameCamera, FrameWorld
	case KindCameraToCamera:
		return FrameCamera, FrameCamera
	default:
		return FrameWorld, FrameWorld
	}
}

// KindOf returns the pose kind mapping in to out.
func KindOf(in, out Frame) PoseKind {
	return PoseKind(string(in) + "_to_" + string(out))
}

// Inverse returns the kind of the inverted pose.
func (k PoseKind) Inverse() PoseKind {
	in, out := k.Frames()
	return KindOf(out, in)
}

// poseJSON is the stored form of a pose: a translation and a row-major rotation.
type poseJSON struct {
	Translation [3]float64 `json:"translation"`
	Rotation    [9]float64 `json:"rotation"`
}

// MarshalJSON encodes the pose as {"translation":[x,y,z],"rotation":[9 row-major]}.
func (p Pose[In, Out]) MarshalJSON() ([]byte, error) {
	t := p.iso.Translation
	return json.Marshal(poseJSON{
		Translation: [3]float64{t.X, t.Y, t.Z},
		Rotation:    p.iso.Rotation,
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON. The rotation must
// pass NewRotation.
func (p *Pose[In, Out]) UnmarshalJSON(data []byte) error {
	var v poseJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r, err := NewRotation(v.Rotation)
	if err != nil {
		return err
	}
	p.iso = Isometry{
		Rotation:    r,
		Translation: r3.Vec{X: v.Translation[0], Y: v.Translation[1], Z: v.Translation[2]},
	}
	return nil
}
