package imaging

import (
	"errors"
	"fmt"
)

// InvalidImageError reports undecodable, corrupt or empty input.
type InvalidImageError struct {
	Reason string
	Err    error
}

func (e *InvalidImageError) Error() string {
	if e.Err != nil {
		return "invalid image: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid image: " + e.Reason
}

func (e *InvalidImageError) Unwrap() error { return e.Err }

// IsInvalidImage reports whether err is (or wraps) an InvalidImageError.
func IsInvalidImage(err error) bool {
	var e *InvalidImageError
	return errors.As(err, &e)
}

// InvalidDimensionsError reports a non-positive or over-limit target size.
type InvalidDimensionsError struct {
	Width, Height int
	Reason        string
}

func (e *InvalidDimensionsError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid dimensions %dx%d", e.Width, e.Height)
	}
	return fmt.Sprintf("invalid dimensions %dx%d: %s", e.Width, e.Height, e.Reason)
}

// IsInvalidDimensions reports whether err is (or wraps) an InvalidDimensionsError.
func IsInvalidDimensions(err error) bool {
	var e *InvalidDimensionsError
	return errors.As(err, &e)
}
