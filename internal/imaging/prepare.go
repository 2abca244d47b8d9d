package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Prepare crops and downsizes a decoded image before it enters the diffusion pipeline.
//
// Parameters:
//   - img: Source image.
//   - region: Optional crop rectangle in img coordinates. Nil keeps the whole image.
//   - maxDimension: Upper bound for both output axes. Larger images are fit inside a
//     maxDimension x maxDimension box with Lanczos resampling, preserving aspect
//     ratio. Zero or negative disables resizing.
//
// Returns:
//   - image.Image: The prepared image, origin at (0,0).
//   - error: Non-nil if the region lies outside the image or is empty, or if the
//     result would be smaller than 2x2 (the smallest grid the diffusion stencil accepts).
func Prepare(img image.Image, region *Region, maxDimension int) (image.Image, error) {
	bounds := img.Bounds()
	out := img

	if region != nil {
		if region.X1 < bounds.Min.X || region.Y1 < bounds.Min.Y || region.X2 > bounds.Max.X || region.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(img, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
	}

	b := out.Bounds()
	if maxDimension > 0 && (b.Dx() > maxDimension || b.Dy() > maxDimension) {
		out = imaging.Fit(out, maxDimension, maxDimension, imaging.Lanczos)
	}

	b = out.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return nil, fmt.Errorf("prepared image %dx%d is smaller than 2x2", b.Dx(), b.Dy())
	}
	return out, nil
}

// Rescale resizes img by factor using Lanczos resampling.
// A factor of 1 (or any non-positive factor) returns img unchanged.
func Rescale(img image.Image, factor float64) image.Image {
	if factor == 1.0 || factor <= 0 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
