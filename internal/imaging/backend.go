package imaging

import (
	"fmt"
	"strings"
)

// NewResampler returns the backend named by cfg: "" or "draw" for the pure-Go
// resampler, "opencv" for gocv.
func NewResampler(name string) (Resampler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "draw":
		return DrawResampler{}, nil
	case "opencv":
		return NewCVResampler()
	}
	return nil, fmt.Errorf("unknown resampler %q", name)
}
