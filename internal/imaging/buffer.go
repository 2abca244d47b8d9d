package imaging

import (
	"errors"
	"fmt"
)

// ErrDimensions is returned when a buffer is built from data that does not
// match the requested width and height.
var ErrDimensions = errors.New("imaging: data length does not match dimensions")

// GrayImage is a single-channel image of float32 samples stored row-major.
//
// It is the dense buffer every numeric kernel in this module reads and writes.
// Access through Get and Put is bounds checked: an out-of-range coordinate is a
// programming error and panics rather than being clamped or wrapped. Hot loops
// use Row or Pix to work on the backing slice directly.
//
// # Layout
//
// Sample (x, y) lives at index y*Width()+x of Pix(). There is no row padding,
// so Pix() can be iterated as a flat slice when the position does not matter.
type GrayImage struct {
	pix    []float32
	width  int
	height int
}

// NewGrayImage allocates a zero-filled image.
//
// Non-positive dimensions yield an empty 0x0 image.
func NewGrayImage(width, height int) *GrayImage {
	if width <= 0 || height <= 0 {
		return &GrayImage{}
	}
	return &GrayImage{
		pix:    make([]float32, width*height),
		width:  width,
		height: height,
	}
}

// NewGrayImageFromData wraps row-major samples without copying them.
//
// Parameters:
//   - width, height: Dimensions in pixels. Both must be positive.
//   - data: Row-major samples, len(data) must equal width*height.
//
// Returns:
//   - *GrayImage: An image sharing storage with data.
//   - error: ErrDimensions if the length does not match.
func NewGrayImageFromData(width, height int, data []float32) (*GrayImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: got %d samples for %dx%d", ErrDimensions, len(data), width, height)
	}
	return &GrayImage{pix: data, width: width, height: height}, nil
}

// Width returns the image width in pixels.
func (g *GrayImage) Width() int {
	return g.width
}

// Height returns the image height in pixels.
func (g *GrayImage) Height() int {
	return g.height
}

// Get returns the sample at (x, y). It panics if the coordinate is outside the image.
func (g *GrayImage) Get(x, y int) float32 {
	g.checkBounds(x, y)
	return g.pix[y*g.width+x]
}

// Put stores v at (x, y). It panics if the coordinate is outside the image.
func (g *GrayImage) Put(x, y int, v float32) {
	g.checkBounds(x, y)
	g.pix[y*g.width+x] = v
}

// Row returns the mutable samples of row y.
func (g *GrayImage) Row(y int) []float32 {
	if y < 0 || y >= g.height {
		panic(fmt.Sprintf("imaging: row %d outside image height %d", y, g.height))
	}
	start := y * g.width
	return g.pix[start : start+g.width]
}

// Pix returns the row-major backing slice.
func (g *GrayImage) Pix() []float32 {
	return g.pix
}

// Fill sets every sample to v.
func (g *GrayImage) Fill(v float32) {
	for i := range g.pix {
		g.pix[i] = v
	}
}

// Clone returns a deep copy.
func (g *GrayImage) Clone() *GrayImage {
	pix := make([]float32, len(g.pix))
	copy(pix, g.pix)
	return &GrayImage{pix: pix, width: g.width, height: g.height}
}

// SameSize reports whether both images have identical dimensions.
func SameSize(a, b *GrayImage) bool {
	return a.width == b.width && a.height == b.height
}

func (g *GrayImage) checkBounds(x, y int) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		panic(fmt.Sprintf("imaging: pixel (%d,%d) outside %dx%d image", x, y, g.width, g.height))
	}
}
