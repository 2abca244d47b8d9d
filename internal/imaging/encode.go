package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

// EncodedImage contains a rendered GrayImage encoded as base64 PNG.
type EncodedImage struct {
	// Width of the encoded image in pixels (after any rescaling).
	Width int `json:"width"`

	// Height of the encoded image in pixels (after any rescaling).
	Height int `json:"height"`

	// ImageBase64 is the PNG data encoded as standard base64.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// GrayStats summarizes the sample distribution of a GrayImage.
type GrayStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Stats computes the minimum, maximum and mean sample of g.
// An empty image yields the zero value.
func Stats(g *GrayImage) GrayStats {
	if len(g.pix) == 0 {
		return GrayStats{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range g.pix {
		f := float64(v)
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
		sum += f
	}
	return GrayStats{Min: lo, Max: hi, Mean: sum / float64(len(g.pix))}
}

// ToGray8 renders g as an 8-bit grayscale image.
//
// Samples are stretched linearly so that the minimum maps to 0 and the maximum
// to 255. A constant image renders as mid-gray rather than dividing by zero.
func ToGray8(g *GrayImage) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.width, g.height))
	s := Stats(g)
	span := s.Max - s.Min

	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		for x, v := range row {
			level := uint8(128)
			if span > 0 {
				level = uint8(math.Round((float64(v) - s.Min) / span * 255))
			}
			out.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return out
}

// EncodePNG renders g with ToGray8, optionally rescales it, and encodes it as base64 PNG.
//
// Parameters:
//   - g: Image to encode.
//   - scale: Output scale factor. 1.0 keeps the original size.
//
// Returns:
//   - *EncodedImage: The encoded PNG and its final dimensions.
//   - error: Non-nil if PNG encoding fails.
func EncodePNG(g *GrayImage, scale float64) (*EncodedImage, error) {
	img := Rescale(ToGray8(g), scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
