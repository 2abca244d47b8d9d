// Package geometry implements rigid pose algebra over frame-tagged points
// and the residual models used to score correspondences against a pose.
//
// Poses are values of the generic type Pose[In, Out], where In and Out are
// the point types of the source and destination frames. The four frame pairs
// have aliases (WorldToCamera, CameraToWorld, CameraToCamera, WorldToWorld);
// inverting or composing them yields the correctly tagged type at compile
// time. All pose operations delegate to the untagged Isometry.
//
// # Parameterization
//
// The 6-vector SE3 holds the translation followed by the so(3) vector of the
// rotation. FromSE3 and Pose.SE3 convert between the two forms through the
// Rodrigues exponential and a quaternion-based logarithm.
//
// The pose Jacobian returned by TransformJacobians is taken with respect to
// the local update implemented by Pose.Perturb (translation added, rotation
// premultiplied by exp(δ)). Optimizers should apply their steps with Perturb.
//
// # Residuals
//
// FeatureWorldMatch and FeatureMatch score 2D-3D and 2D-2D correspondences.
// Neither fails: degenerate geometry yields DegenerateResidual.
package geometry
