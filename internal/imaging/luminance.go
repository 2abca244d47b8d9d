package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// LuminanceMode selects how color pixels are reduced to a single channel.
type LuminanceMode string

const (
	// LuminanceLuma uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B).
	LuminanceLuma LuminanceMode = "luma"

	// LuminanceLightness uses the CIE L* component of the pixel, scaled to [0,1].
	// It is perceptually uniform, which keeps contrast factors comparable across
	// images with different color casts.
	LuminanceLightness LuminanceMode = "lightness"
)

// ParseLuminanceMode converts a tool argument into a LuminanceMode.
// An empty string selects LuminanceLuma.
func ParseLuminanceMode(s string) (LuminanceMode, error) {
	switch LuminanceMode(s) {
	case "", LuminanceLuma:
		return LuminanceLuma, nil
	case LuminanceLightness:
		return LuminanceLightness, nil
	default:
		return "", fmt.Errorf("unknown luminance mode: %s", s)
	}
}

// Luminance converts a decoded image into a GrayImage with samples in [0,1].
//
// Parameters:
//   - img: Source image (any color model). Its bounds may have a non-zero origin.
//   - mode: Reduction used for color pixels.
//
// Returns a new GrayImage with the same width and height as img.
//
// Fully transparent pixels have no defined color and are mapped to 0 in
// LuminanceLightness mode.
func Luminance(img image.Image, mode LuminanceMode) *GrayImage {
	bounds := img.Bounds()
	out := NewGrayImage(bounds.Dx(), bounds.Dy())

	switch mode {
	case LuminanceLightness:
		for y := 0; y < out.height; y++ {
			row := out.Row(y)
			for x := range row {
				c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
				if !ok {
					continue
				}
				l, _, _ := c.Lab()
				row[x] = float32(clampUnit(l))
			}
		}
	default:
		gray := imaging.Grayscale(img)
		for y := 0; y < out.height; y++ {
			row := out.Row(y)
			for x := range row {
				row[x] = float32(gray.Pix[gray.PixOffset(x, y)]) / 255
			}
		}
	}

	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
