// Package estimate scores and refines poses against observed correspondences.
//
// Residuals evaluates a residual function over many matches concurrently,
// which is the inner loop of consensus estimators, and RefineWorldToCamera
// polishes a camera pose by Gauss-Newton using the analytic pose Jacobians
// from the geometry package.
package estimate
