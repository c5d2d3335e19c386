package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	_ "image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Format names an encoded image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
	FormatGIF  Format = "gif"
)

// jpegQuality is used for every JPEG encode.
const jpegQuality = 95

// FormatFromName maps a file name extension to a Format. Unknown extensions
// yield "" and false.
func FormatFromName(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "png":
		return FormatPNG, true
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "bmp":
		return FormatBMP, true
	case "webp":
		return FormatWebP, true
	case "gif":
		return FormatGIF, true
	}
	return "", false
}

// Decode reads one image from r and normalizes its layout. Any failure is an
// InvalidImageError.
func Decode(r io.Reader) (image.Image, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", &InvalidImageError{Reason: "decode failed", Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", &InvalidImageError{Reason: fmt.Sprintf("empty raster %dx%d", b.Dx(), b.Dy())}
	}
	return Normalize(img), Format(name), nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", &InvalidImageError{Reason: "empty image data"}
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes img in the given format. WebP and GIF have no encoder in the
// stack and are written as PNG; the returned Format is what was written.
func Encode(w io.Writer, img image.Image, f Format) (Format, error) {
	switch f {
	case FormatJPEG:
		return FormatJPEG, jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case FormatBMP:
		return FormatBMP, bmp.Encode(w, img)
	default:
		return FormatPNG, png.Encode(w, img)
	}
}

// Normalize converts layouts that do not implement draw.Image into *image.RGBA
// and rebases the bounds to the origin. Drawable layouts at the origin are
// returned as-is.
func Normalize(img image.Image) image.Image {
	b := img.Bounds()
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Gray, *image.Gray16:
		if b.Min == (image.Point{}) {
			return img
		}
		dst := newLike(img, b.Dx(), b.Dy())
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Clone returns a deep copy of img with the same layout.
func Clone(img image.Image) image.Image {
	b := img.Bounds()
	dst := newLike(img, b.Dx(), b.Dy())
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// newLike allocates a w×h image with the same pixel layout as src.
func newLike(src image.Image, w, h int) draw.Image {
	r := image.Rect(0, 0, w, h)
	switch src.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.NRGBA:
		return image.NewNRGBA(r)
	case *image.NRGBA64:
		return image.NewNRGBA64(r)
	case *image.RGBA64:
		return image.NewRGBA64(r)
	default:
		return image.NewRGBA(r)
	}
}

// Size returns the width and height of img.
func Size(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
