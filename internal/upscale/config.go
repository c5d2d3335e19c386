package upscale

import (
	"github.com/rs/zerolog"

	"upscaled/internal/imaging"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultMaxTargetDimension = 20000
	DefaultAspectTolerance    = 0.01
	DefaultMinNeededScale     = 2
	DefaultMaxNeededScale     = 10
)

// DefaultSupportedFactors is the factor-mode multiplier set used when none is
// configured.
var DefaultSupportedFactors = []int{2, 3, 4, 5, 10}

// Config holds the orchestration policy. Zero values mean "use the default".
type Config struct {
	// SupportedFactors lists the multipliers accepted in factor mode.
	SupportedFactors []int
	// FactorAnchor is the native scale used when a factor has no native
	// engine. Zero, or a scale that is not available, selects the largest
	// available native scale.
	FactorAnchor       int
	MaxTargetDimension int
	// AspectTolerance is the largest |original - target| aspect difference
	// that is reconciled by the final resample instead of a crop.
	AspectTolerance float64
	MinNeededScale  int
	MaxNeededScale  int
	// Resampler defaults to imaging.DrawResampler.
	Resampler imaging.Resampler
	Logger    *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if len(c.SupportedFactors) == 0 {
		c.SupportedFactors = DefaultSupportedFactors
	}
	if c.MaxTargetDimension <= 0 {
		c.MaxTargetDimension = DefaultMaxTargetDimension
	}
	if c.AspectTolerance <= 0 {
		c.AspectTolerance = DefaultAspectTolerance
	}
	if c.MinNeededScale <= 0 {
		c.MinNeededScale = DefaultMinNeededScale
	}
	if c.MaxNeededScale <= 0 {
		c.MaxNeededScale = DefaultMaxNeededScale
	}
	if c.MaxNeededScale < c.MinNeededScale {
		c.MaxNeededScale = c.MinNeededScale
	}
	if c.Resampler == nil {
		c.Resampler = imaging.DrawResampler{}
	}
	return c
}
