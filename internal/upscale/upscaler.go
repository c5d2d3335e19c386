package upscale

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"upscaled/internal/imaging"
	"upscaled/internal/manager"
)

// errNoScales is wrapped in an EngineInitError when no native scale is
// available at all.
var errNoScales = errors.New("no native scales available")

// Upscaler is the single entry point for upscale requests.
type Upscaler struct {
	engine Engine
	cfg    Config
	log    zerolog.Logger
}

// New returns an Upscaler running passes on engine under cfg.
func New(engine Engine, cfg Config) *Upscaler {
	cfg = cfg.withDefaults()
	u := &Upscaler{engine: engine, cfg: cfg, log: zerolog.Nop()}
	if cfg.Logger != nil {
		u.log = *cfg.Logger
	}
	return u
}

// SupportedFactors returns the factor-mode multipliers accepted.
func (u *Upscaler) SupportedFactors() []int {
	return append([]int(nil), u.cfg.SupportedFactors...)
}

// MaxTargetDimension is the largest accepted resolution-mode target side.
func (u *Upscaler) MaxTargetDimension() int { return u.cfg.MaxTargetDimension }

// NativeScales returns the native scales of the engine.
func (u *Upscaler) NativeScales() []int { return u.engine.Scales() }

// Upscale dispatches req to the factor or resolution strategy. img is never
// modified. On error no image is returned.
func (u *Upscaler) Upscale(ctx context.Context, req Request, img image.Image) (Result, error) {
	if img == nil {
		return Result{}, &imaging.InvalidImageError{Reason: "nil image"}
	}
	ow, oh := imaging.Size(img)
	if ow <= 0 || oh <= 0 {
		return Result{}, &imaging.InvalidImageError{Reason: fmt.Sprintf("empty raster %dx%d", ow, oh)}
	}
	start := time.Now()
	tr := Trace{Mode: req.Mode}
	var (
		out image.Image
		err error
	)
	switch req.Mode {
	case ModeFactor:
		out, err = u.upscaleFactor(ctx, img, req.Factor, &tr)
	case ModeResolution:
		out, err = u.upscaleResolution(ctx, img, req.Width, req.Height, &tr)
	default:
		err = &imaging.InvalidDimensionsError{Width: req.Width, Height: req.Height, Reason: fmt.Sprintf("unknown upscale mode %q", req.Mode)}
	}
	dur := time.Since(start)
	label := modeLabel(req.Mode)
	requestDuration.WithLabelValues(label).Observe(dur.Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(label, "error").Inc()
		u.log.Warn().Str("event", "upscale_error").Str("mode", string(req.Mode)).Int("w", ow).Int("h", oh).Err(err).Msg("upscale")
		return Result{}, err
	}
	requestsTotal.WithLabelValues(label, "ok").Inc()
	fw, fh := imaging.Size(out)
	u.log.Info().Str("event", "upscale_done").Str("mode", string(req.Mode)).
		Str("from", fmt.Sprintf("%dx%d", ow, oh)).Str("to", fmt.Sprintf("%dx%d", fw, fh)).
		Int("native", tr.NativeScale).Int("steps", len(tr.Steps)).Dur("dur", dur).Msg("upscale")
	return Result{
		Image:          out,
		OriginalWidth:  ow,
		OriginalHeight: oh,
		FinalWidth:     fw,
		FinalHeight:    fh,
		Trace:          tr,
	}, nil
}

// UpscaleBytes decodes data and upscales it. Undecodable input fails with an
// InvalidImageError before any inference.
func (u *Upscaler) UpscaleBytes(ctx context.Context, req Request, data []byte) (Result, error) {
	img, f, err := imaging.DecodeBytes(data)
	if err != nil {
		return Result{}, err
	}
	res, err := u.Upscale(ctx, req, img)
	if err != nil {
		return Result{}, err
	}
	res.SourceFormat = f
	return res, nil
}

// available returns the native scales, or an EngineInitError when there are
// none.
func (u *Upscaler) available() ([]int, error) {
	s := u.engine.Scales()
	if len(s) == 0 {
		return nil, &manager.EngineInitError{Err: errNoScales}
	}
	return s, nil
}
