package imaging

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Policy selects a resampling filter by purpose. Policies are never
// interchangeable: callers pick one by direction and step.
type Policy int

const (
	// Reduction is area-weighted averaging, used whenever a dimension shrinks.
	Reduction Policy = iota + 1
	// Magnification is cubic interpolation for non-final enlargement.
	Magnification
	// Precision is the highest-quality filter, used only for the final
	// exact-size correction in either direction.
	Precision
)

func (p Policy) String() string {
	switch p {
	case Reduction:
		return "reduction"
	case Magnification:
		return "magnification"
	case Precision:
		return "precision"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Resampler changes image dimensions under a Policy. Implementations return a
// new image with the same pixel layout as the input.
type Resampler interface {
	Resample(img image.Image, w, h int, p Policy) (image.Image, error)
}

// Resample is DrawResampler{}.Resample.
func Resample(img image.Image, w, h int, p Policy) (image.Image, error) {
	return DrawResampler{}.Resample(img, w, h, p)
}

// areaKernel weights each source pixel by the share of it covered by the
// destination pixel footprint, for a downscale ratio s (source/destination).
// x/image/draw evaluates the kernel at distance/s when shrinking, so the
// coverage is expressed in those units. For s <= 1 it degrades to a tent,
// which is what OpenCV's INTER_AREA does when enlarging.
func areaKernel(s float64) *draw.Kernel {
	if s < 1 {
		s = 1
	}
	return &draw.Kernel{
		Support: 0.5 + 0.5/s,
		At: func(t float64) float64 {
			return math.Max(0, math.Min(1, s/2+0.5-t*s))
		},
	}
}

// lanczos3 is the Lanczos windowed sinc with a = 3.
var lanczos3 = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		if t >= 3 {
			return 0
		}
		pt := math.Pi * t
		return 3 * math.Sin(pt) * math.Sin(pt/3) / (pt * pt)
	},
}

// DrawResampler resamples with golang.org/x/image/draw kernels:
// box (area) for Reduction, Catmull-Rom for Magnification and Lanczos-3 for
// Precision.
type DrawResampler struct{}

func (DrawResampler) Resample(img image.Image, w, h int, p Policy) (image.Image, error) {
	if err := checkTarget(img, w, h); err != nil {
		return nil, err
	}
	var k *draw.Kernel
	switch p {
	case Reduction:
		return reduce(img, w, h), nil
	case Magnification:
		k = draw.CatmullRom
	case Precision:
		k = lanczos3
	default:
		return nil, fmt.Errorf("unknown resample policy %d", int(p))
	}
	dst := newLike(img, w, h)
	k.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// reduce area-averages img to w x h. x/image/draw applies one kernel to both
// axes, so unequal ratios go through a horizontal then a vertical pass.
func reduce(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	sx := float64(b.Dx()) / float64(w)
	sy := float64(b.Dy()) / float64(h)
	dst := newLike(img, w, h)
	if sx == sy {
		areaKernel(sx).Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}
	mid := image.NewRGBA64(image.Rect(0, 0, w, b.Dy()))
	areaKernel(sx).Scale(mid, mid.Bounds(), img, b, draw.Src, nil)
	areaKernel(sy).Scale(dst, dst.Bounds(), mid, mid.Bounds(), draw.Src, nil)
	return dst
}

func checkTarget(img image.Image, w, h int) error {
	if w <= 0 || h <= 0 {
		return &InvalidDimensionsError{Width: w, Height: h, Reason: "target must be positive"}
	}
	if img == nil {
		return &InvalidImageError{Reason: "nil image"}
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return &InvalidImageError{Reason: "empty source raster"}
	}
	return nil
}
