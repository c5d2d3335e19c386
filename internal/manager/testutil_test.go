package manager

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/image/draw"

	"upscaled/pkg/types"
)

// writeWeights creates an empty weights file and returns its path.
func writeWeights(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	return p
}

// testRegistry returns models for the given scales with fake paths.
func testRegistry(scales ...int) []types.Model {
	out := make([]types.Model, 0, len(scales))
	for _, s := range scales {
		name := "x" + strconv.Itoa(s)
		out = append(out, types.Model{ID: name, Name: name, Path: "/weights/" + name + ".pth", Scale: s})
	}
	return out
}

// fakeAdapter is an in-memory adapter used for tests. Its engines upscale with
// nearest neighbour.
type fakeAdapter struct {
	mu       sync.Mutex
	starts   atomic.Int32
	closes   atomic.Int32
	startErr error
	// startDelay slows construction so concurrent callers overlap.
	startDelay time.Duration
	// passDelay slows every pass.
	passDelay time.Duration
	passErr   error
	// wrongSize makes engines return an image one pixel too narrow.
	wrongSize bool
	panicPass bool
	specs     []EngineSpec
}

func (f *fakeAdapter) Start(spec EngineSpec) (Engine, error) {
	f.starts.Add(1)
	if f.startDelay > 0 {
		time.Sleep(f.startDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &fakeEngine{f: f}, nil
}

func (f *fakeAdapter) setStartErr(err error) {
	f.mu.Lock()
	f.startErr = err
	f.mu.Unlock()
}

type fakeEngine struct {
	f      *fakeAdapter
	passes atomic.Int32
	active atomic.Int32
	// maxActive records the highest observed concurrency.
	maxActive atomic.Int32
}

func (e *fakeEngine) Enhance(ctx context.Context, img image.Image, outscale int) (image.Image, error) {
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		old := e.maxActive.Load()
		if n <= old || e.maxActive.CompareAndSwap(old, n) {
			break
		}
	}
	e.passes.Add(1)
	if e.f.panicPass {
		panic("boom")
	}
	if e.f.passDelay > 0 {
		time.Sleep(e.f.passDelay)
	}
	if e.f.passErr != nil {
		return nil, e.f.passErr
	}
	b := img.Bounds()
	w := b.Dx() * outscale
	if e.f.wrongSize {
		w--
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, b.Dy()*outscale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

func (e *fakeEngine) Close() error {
	e.f.closes.Add(1)
	return nil
}

// solid returns a w x h NRGBA image filled with c.
func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var errStart = errors.New("device init failed")

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func cpuPolicy() DevicePolicy { return DevicePolicy{Device: DeviceCPU} }
