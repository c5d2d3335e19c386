//go:build gocv

package imaging

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// CVResampler resamples through OpenCV with the interpolation flags the
// policies were originally tuned on: INTER_AREA, INTER_CUBIC, INTER_LANCZOS4.
type CVResampler struct{}

// NewCVResampler returns the OpenCV-backed resampler.
func NewCVResampler() (Resampler, error) { return CVResampler{}, nil }

func (CVResampler) Resample(img image.Image, w, h int, p Policy) (image.Image, error) {
	if err := checkTarget(img, w, h); err != nil {
		return nil, err
	}
	var flag gocv.InterpolationFlags
	switch p {
	case Reduction:
		flag = gocv.InterpolationArea
	case Magnification:
		flag = gocv.InterpolationCubic
	case Precision:
		flag = gocv.InterpolationLanczos4
	default:
		return nil, fmt.Errorf("unknown resample policy %d", int(p))
	}

	var src gocv.Mat
	var err error
	switch g := img.(type) {
	case *image.Gray16:
		return resizeGray16(g, w, h, flag)
	case *image.Gray:
		src, err = gocv.ImageGrayToMatGray(g)
	default:
		src, err = gocv.ImageToMatRGBA(img)
	}
	if err != nil {
		return nil, fmt.Errorf("opencv: to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Resize(src, &dst, image.Point{X: w, Y: h}, 0, 0, flag); err != nil {
		return nil, fmt.Errorf("opencv: resize: %w", err)
	}
	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv: to image: %w", err)
	}
	// Restore the caller's layout; OpenCV round-trips through RGBA or Gray.
	res := newLike(img, w, h)
	draw.Draw(res, res.Bounds(), out, out.Bounds().Min, draw.Src)
	return res, nil
}

// resizeGray16 keeps all 16 bits by going through a CV_16U Mat; the
// image.Image conversions in gocv are 8-bit only.
func resizeGray16(g *image.Gray16, w, h int, flag gocv.InterpolationFlags) (image.Image, error) {
	b := g.Bounds()
	buf := make([]byte, 0, b.Dx()*b.Dy()*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			buf = binary.NativeEndian.AppendUint16(buf, g.Gray16At(x, y).Y)
		}
	}
	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV16U, buf)
	if err != nil {
		return nil, fmt.Errorf("opencv: to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Resize(src, &dst, image.Point{X: w, Y: h}, 0, 0, flag); err != nil {
		return nil, fmt.Errorf("opencv: resize: %w", err)
	}
	data := dst.ToBytes()
	if len(data) < w*h*2 {
		return nil, fmt.Errorf("opencv: short 16-bit buffer: %d bytes", len(data))
	}
	out := image.NewGray16(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		out.SetGray16(i%w, i/w, color.Gray16{Y: binary.NativeEndian.Uint16(data[2*i:])})
	}
	return out, nil
}
