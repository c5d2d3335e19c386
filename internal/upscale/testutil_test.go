package upscale

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
)

// fakeEngine upscales with nearest neighbour and records every pass.
type fakeEngine struct {
	mu     sync.Mutex
	scales []int
	calls  []int
	err    error
}

func newFakeEngine(scales ...int) *fakeEngine { return &fakeEngine{scales: scales} }

func (f *fakeEngine) Scales() []int { return append([]int(nil), f.scales...) }

func (f *fakeEngine) Enhance(ctx context.Context, scale int, img image.Image) (image.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, scale)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

func (f *fakeEngine) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

var errRuntime = errors.New("runtime failure")

// gradient returns a w x h image whose pixels encode their coordinates, so
// crops can be checked for position.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 128, A: 255})
		}
	}
	return img
}
