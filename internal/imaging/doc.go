// Package imaging provides the dense float image buffer used by the numeric
// kernels, plus the plumbing that turns decoded files into such buffers and back.
//
// The central type is GrayImage: a row-major grid of float32 samples with
// bounds-checked Get/Put and direct row access for hot loops. Everything else in
// the package is conversion around it:
//   - Luminance reduces a decoded image.Image to one channel (BT.601 luma or CIE L*)
//   - Prepare crops and fits an image before conversion
//   - GaussianSmooth and Gradient provide the smoothed derivatives the conductivity
//     computation needs
//   - ToGray8 and EncodePNG render buffers for tool responses
//   - ImageCache avoids decoding the same file repeatedly
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. GrayImage carries no locks; a buffer
// being mutated must not be shared between goroutines.
//
// # Error Handling
//
// Functions that validate external input (dimensions, regions, files) return
// errors. Out-of-range pixel access on a GrayImage is a programming error and
// panics.
package imaging
