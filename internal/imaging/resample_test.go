package imaging

import (
	"image"
	"image/color"
	"testing"
)

func uniformNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestResampleDimensionsAndLayout(t *testing.T) {
	src := uniformNRGBA(40, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	for _, p := range []Policy{Reduction, Magnification, Precision} {
		for _, sz := range [][2]int{{10, 5}, {80, 40}, {33, 17}} {
			out, err := Resample(src, sz[0], sz[1], p)
			if err != nil {
				t.Fatalf("%v %v: %v", p, sz, err)
			}
			if w, h := Size(out); w != sz[0] || h != sz[1] {
				t.Fatalf("%v: got %dx%d want %dx%d", p, w, h, sz[0], sz[1])
			}
			n, ok := out.(*image.NRGBA)
			if !ok {
				t.Fatalf("%v: layout changed to %T", p, out)
			}
			c := n.NRGBAAt(sz[0]/2, sz[1]/2)
			if absDiff(c.R, 200) > 1 || absDiff(c.G, 100) > 1 || absDiff(c.B, 50) > 1 {
				t.Fatalf("%v: uniform color drifted: %+v", p, c)
			}
		}
	}
}

func TestResampleKeepsGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	out, err := Resample(src, 16, 16, Magnification)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if _, ok := out.(*image.Gray); !ok {
		t.Fatalf("expected *image.Gray, got %T", out)
	}
}

func TestReductionAveragesArea(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(0, 0, color.Gray{Y: 0})
	src.SetGray(1, 0, color.Gray{Y: 255})
	src.SetGray(0, 1, color.Gray{Y: 255})
	src.SetGray(1, 1, color.Gray{Y: 0})
	out, err := Resample(src, 1, 1, Reduction)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	got := out.(*image.Gray).GrayAt(0, 0).Y
	if got < 126 || got > 129 {
		t.Fatalf("expected area mean ~127, got %d", got)
	}
}

func stripes(cols []uint8, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, len(cols), h))
	for y := 0; y < h; y++ {
		for x, v := range cols {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestReductionWeightsPartialCoverage(t *testing.T) {
	// 4 -> 3 columns: each output column covers 4/3 source columns, so edge
	// columns count by the fraction they overlap.
	src := stripes([]uint8{0, 90, 180, 255}, 4)
	want := []uint8{22, 135, 236}
	for _, h := range []int{3, 2} {
		out, err := Resample(src, 3, h, Reduction)
		if err != nil {
			t.Fatalf("resample to 3x%d: %v", h, err)
		}
		g, ok := out.(*image.Gray)
		if !ok {
			t.Fatalf("expected *image.Gray, got %T", out)
		}
		if b := g.Bounds(); b.Dx() != 3 || b.Dy() != h {
			t.Fatalf("size %v", b)
		}
		for x, w := range want {
			if got := g.GrayAt(x, 0).Y; absDiff(got, w) > 2 {
				t.Fatalf("3x%d column %d = %d, want ~%d", h, x, got, w)
			}
		}
	}
}

func TestResampleInvalidTarget(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for _, sz := range [][2]int{{0, 4}, {4, 0}, {-1, 5}} {
		_, err := Resample(src, sz[0], sz[1], Precision)
		if !IsInvalidDimensions(err) {
			t.Fatalf("%v: expected InvalidDimensionsError, got %v", sz, err)
		}
	}
	if _, err := Resample(nil, 4, 4, Precision); !IsInvalidImage(err) {
		t.Fatalf("expected InvalidImageError for nil, got %v", err)
	}
	if _, err := Resample(src, 4, 4, Policy(42)); err == nil {
		t.Fatalf("expected unknown policy error")
	}
}

func TestResampleDoesNotMutateSource(t *testing.T) {
	src := uniformNRGBA(6, 6, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	before := append([]uint8(nil), src.Pix...)
	if _, err := Resample(src, 3, 3, Reduction); err != nil {
		t.Fatalf("resample: %v", err)
	}
	for i := range before {
		if before[i] != src.Pix[i] {
			t.Fatalf("source mutated at %d", i)
		}
	}
}

func TestNewResampler(t *testing.T) {
	for _, name := range []string{"", "draw", " DRAW "} {
		r, err := NewResampler(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if _, ok := r.(DrawResampler); !ok {
			t.Fatalf("%q: got %T", name, r)
		}
	}
	if _, err := NewResampler("bilinear"); err == nil {
		t.Fatalf("expected unknown resampler error")
	}
}

func TestPolicyString(t *testing.T) {
	if Reduction.String() != "reduction" || Magnification.String() != "magnification" || Precision.String() != "precision" {
		t.Fatalf("unexpected policy names")
	}
}
