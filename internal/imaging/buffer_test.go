package imaging

import (
	"errors"
	"testing"
)

func TestNewGrayImage(t *testing.T) {
	g := NewGrayImage(7, 3)

	if g.Width() != 7 || g.Height() != 3 {
		t.Errorf("dimensions: got %dx%d, want 7x3", g.Width(), g.Height())
	}
	if len(g.Pix()) != 21 {
		t.Errorf("len(Pix): got %d, want 21", len(g.Pix()))
	}
	for i, v := range g.Pix() {
		if v != 0 {
			t.Fatalf("Pix[%d]: got %v, want 0", i, v)
		}
	}
}

func TestNewGrayImage_NonPositive(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 5},
		{"zero height", 5, 0},
		{"negative", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrayImage(tt.w, tt.h)
			if g.Width() != 0 || g.Height() != 0 {
				t.Errorf("got %dx%d, want 0x0", g.Width(), g.Height())
			}
		})
	}
}

func TestNewGrayImageFromData(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	g, err := NewGrayImageFromData(3, 2, data)
	if err != nil {
		t.Fatalf("NewGrayImageFromData failed: %v", err)
	}

	// Row-major: (x, y) -> y*width + x
	if got := g.Get(2, 0); got != 3 {
		t.Errorf("Get(2,0): got %v, want 3", got)
	}
	if got := g.Get(0, 1); got != 4 {
		t.Errorf("Get(0,1): got %v, want 4", got)
	}

	// Storage is shared, not copied
	data[5] = 42
	if got := g.Get(2, 1); got != 42 {
		t.Errorf("Get(2,1) after external write: got %v, want 42", got)
	}
}

func TestNewGrayImageFromData_Mismatch(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		n    int
	}{
		{"too short", 3, 3, 8},
		{"too long", 2, 2, 5},
		{"zero width", 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrayImageFromData(tt.w, tt.h, make([]float32, tt.n))
			if !errors.Is(err, ErrDimensions) {
				t.Errorf("error: got %v, want ErrDimensions", err)
			}
		})
	}
}

func TestGrayImage_PutGet(t *testing.T) {
	g := NewGrayImage(4, 4)
	g.Put(3, 2, 0.25)

	if got := g.Get(3, 2); got != 0.25 {
		t.Errorf("Get(3,2): got %v, want 0.25", got)
	}
	if got := g.Row(2)[3]; got != 0.25 {
		t.Errorf("Row(2)[3]: got %v, want 0.25", got)
	}
	if got := g.Pix()[2*4+3]; got != 0.25 {
		t.Errorf("Pix()[11]: got %v, want 0.25", got)
	}
}

func TestGrayImage_OutOfBoundsPanics(t *testing.T) {
	g := NewGrayImage(3, 2)

	expectPanic(t, "Get(-1,0)", func() { g.Get(-1, 0) })
	expectPanic(t, "Get(3,0)", func() { g.Get(3, 0) })
	expectPanic(t, "Get(0,2)", func() { g.Get(0, 2) })
	expectPanic(t, "Put(0,-1)", func() { g.Put(0, -1, 1) })
	expectPanic(t, "Row(2)", func() { g.Row(2) })
}

func TestGrayImage_FillClone(t *testing.T) {
	g := NewGrayImage(3, 3)
	g.Fill(0.5)

	c := g.Clone()
	c.Put(1, 1, 9)

	if got := g.Get(1, 1); got != 0.5 {
		t.Errorf("original modified through clone: got %v, want 0.5", got)
	}
	if !SameSize(g, c) {
		t.Error("clone should have the same size")
	}
	if SameSize(g, NewGrayImage(3, 4)) {
		t.Error("3x3 and 3x4 should not be the same size")
	}
}
