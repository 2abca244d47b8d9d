package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestLuminance_Luma(t *testing.T) {
	img := createPatternImage(10, 10)
	g := Luminance(img, LuminanceLuma)

	if g.Width() != 10 || g.Height() != 10 {
		t.Fatalf("dimensions: got %dx%d, want 10x10", g.Width(), g.Height())
	}

	tests := []struct {
		name string
		x, y int
		want float64
	}{
		{"red", 1, 1, 0.299},
		{"green", 8, 1, 0.587},
		{"blue", 1, 8, 0.114},
		{"white", 8, 8, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(g.Get(tt.x, tt.y))
			if absFloat(got-tt.want) > 0.01 {
				t.Errorf("luma at (%d,%d): got %.4f, want ~%.3f", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestLuminance_Lightness(t *testing.T) {
	black := Luminance(createInMemoryImage(4, 4, color.Black), LuminanceLightness)
	white := Luminance(createInMemoryImage(4, 4, color.White), LuminanceLightness)
	gray := Luminance(createInMemoryImage(4, 4, color.RGBA{128, 128, 128, 255}), LuminanceLightness)

	if got := black.Get(2, 2); absFloat(float64(got)) > 0.001 {
		t.Errorf("black lightness: got %v, want 0", got)
	}
	if got := white.Get(2, 2); absFloat(float64(got)-1) > 0.001 {
		t.Errorf("white lightness: got %v, want 1", got)
	}
	// L* is perceptual: mid-gray sits above the linear midpoint
	if got := gray.Get(2, 2); got < 0.5 || got > 0.6 {
		t.Errorf("gray lightness: got %v, want in (0.5, 0.6)", got)
	}
}

func TestLuminance_NonZeroOrigin(t *testing.T) {
	src := createPatternImage(20, 20)
	sub := src.SubImage(image.Rect(10, 10, 20, 20))

	g := Luminance(sub, LuminanceLuma)
	if g.Width() != 10 || g.Height() != 10 {
		t.Fatalf("dimensions: got %dx%d, want 10x10", g.Width(), g.Height())
	}
	// Bottom-right quadrant of the pattern is white
	if got := g.Get(0, 0); absFloat(float64(got)-1) > 0.01 {
		t.Errorf("Get(0,0): got %v, want ~1", got)
	}
}

func TestParseLuminanceMode(t *testing.T) {
	tests := []struct {
		in      string
		want    LuminanceMode
		wantErr bool
	}{
		{"", LuminanceLuma, false},
		{"luma", LuminanceLuma, false},
		{"lightness", LuminanceLightness, false},
		{"hsv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLuminanceMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("mode: got %q, want %q", got, tt.want)
			}
		})
	}
}
