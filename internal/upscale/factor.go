package upscale

import (
	"context"
	"fmt"
	"image"
	"slices"

	"upscaled/internal/imaging"
)

// upscaleFactor produces exactly (w*m, h*m) with a single inference pass.
// A native engine for m is used as-is; otherwise the anchor scale runs and
// one corrective resample lands on the requested size.
func (u *Upscaler) upscaleFactor(ctx context.Context, img image.Image, m int, tr *Trace) (image.Image, error) {
	if err := u.checkFactor(m); err != nil {
		return nil, err
	}
	scales, err := u.available()
	if err != nil {
		return nil, err
	}
	w, h := imaging.Size(img)

	if slices.Contains(scales, m) {
		tr.NativeScale = m
		out, err := u.engine.Enhance(ctx, m, img)
		if err != nil {
			return nil, err
		}
		tr.add(OpEnhance, m, 0, out)
		return out, nil
	}

	anchor := u.factorAnchor(scales)
	tr.NativeScale = anchor
	inter, err := u.engine.Enhance(ctx, anchor, img)
	if err != nil {
		return nil, err
	}
	tr.add(OpEnhance, anchor, 0, inter)

	p := imaging.Magnification
	if m < anchor {
		p = imaging.Reduction
	}
	out, err := u.cfg.Resampler.Resample(inter, w*m, h*m, p)
	if err != nil {
		return nil, err
	}
	tr.add(OpResample, 0, p, out)
	return out, nil
}

func (u *Upscaler) checkFactor(m int) error {
	if m <= 0 {
		return &imaging.InvalidDimensionsError{Width: m, Height: m, Reason: "factor must be positive"}
	}
	if !slices.Contains(u.cfg.SupportedFactors, m) {
		return &imaging.InvalidDimensionsError{Width: m, Height: m, Reason: fmt.Sprintf("unsupported factor %d (supported %v)", m, u.cfg.SupportedFactors)}
	}
	return nil
}

// factorAnchor is the configured baseline when it is available, otherwise
// the largest available native scale.
func (u *Upscaler) factorAnchor(scales []int) int {
	if a := u.cfg.FactorAnchor; a > 0 && slices.Contains(scales, a) {
		return a
	}
	return scales[len(scales)-1]
}
