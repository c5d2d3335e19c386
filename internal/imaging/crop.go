package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// CenterCropRect returns the largest w×h-origin rectangle with the given
// aspect (width/height) that removes equal margins from one dimension only.
// When the current aspect already matches, the full rectangle is returned.
func CenterCropRect(w, h int, aspect float64) image.Rectangle {
	cur := float64(w) / float64(h)
	switch {
	case cur > aspect:
		nw := int(float64(h) * aspect)
		if nw < 1 {
			nw = 1
		}
		x0 := (w - nw) / 2
		return image.Rect(x0, 0, x0+nw, h)
	case cur < aspect:
		nh := int(float64(w) / aspect)
		if nh < 1 {
			nh = 1
		}
		y0 := (h - nh) / 2
		return image.Rect(0, y0, w, y0+nh)
	}
	return image.Rect(0, 0, w, h)
}

// CenterCrop discards equal margins from the longer relative dimension so
// the result has the requested aspect ratio. It only removes pixels.
func CenterCrop(img image.Image, aspect float64) (image.Image, error) {
	if img == nil {
		return nil, &InvalidImageError{Reason: "nil image"}
	}
	if aspect <= 0 {
		return nil, fmt.Errorf("center crop: aspect must be positive, got %v", aspect)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &InvalidImageError{Reason: "empty source raster"}
	}
	r := CenterCropRect(b.Dx(), b.Dy(), aspect)
	return Crop(img, r)
}

// Crop copies the region r (relative to img's origin) into a new image.
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	b := img.Bounds()
	r = r.Add(b.Min)
	if r.Empty() || !r.In(b) {
		return nil, &InvalidDimensionsError{Width: r.Dx(), Height: r.Dy(), Reason: "crop outside source bounds"}
	}
	dst := newLike(img, r.Dx(), r.Dy())
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, nil
}
