//go:build !gocv

package imaging

import "errors"

// NewCVResampler fails in builds without the 'gocv' tag so that selecting the
// OpenCV backend never silently falls back to the pure-Go one.
func NewCVResampler() (Resampler, error) {
	return nil, errors.New("opencv resampler not built (missing 'gocv' build tag)")
}
