package upscale

import (
	"context"
	"fmt"
	"image"
	"math"
	"slices"

	"upscaled/internal/imaging"
)

// upscaleResolution produces exactly (tw, th). The needed integer scale is
// reached with one inference pass plus at most one resample; a differing
// aspect is reconciled by a center crop, and a final precision resample runs
// only if the size is still off.
func (u *Upscaler) upscaleResolution(ctx context.Context, img image.Image, tw, th int, tr *Trace) (image.Image, error) {
	if err := u.checkTarget(tw, th); err != nil {
		return nil, err
	}
	scales, err := u.available()
	if err != nil {
		return nil, err
	}
	ow, oh := imaging.Size(img)
	needed := u.neededScale(ow, oh, tw, th)
	tr.NeededScale = needed

	var inter image.Image
	if slices.Contains(scales, needed) {
		tr.NativeScale = needed
		if inter, err = u.engine.Enhance(ctx, needed, img); err != nil {
			return nil, err
		}
		tr.add(OpEnhance, needed, 0, inter)
	} else {
		anchor := scales[len(scales)-1]
		tr.NativeScale = anchor
		out, err := u.engine.Enhance(ctx, anchor, img)
		if err != nil {
			return nil, err
		}
		tr.add(OpEnhance, anchor, 0, out)
		p := imaging.Magnification
		if needed < anchor {
			p = imaging.Reduction
		}
		if inter, err = u.cfg.Resampler.Resample(out, ow*needed, oh*needed, p); err != nil {
			return nil, err
		}
		tr.add(OpResample, 0, p, inter)
	}

	origAspect := float64(ow) / float64(oh)
	targetAspect := float64(tw) / float64(th)
	if math.Abs(origAspect-targetAspect) > u.cfg.AspectTolerance {
		if inter, err = imaging.CenterCrop(inter, targetAspect); err != nil {
			return nil, err
		}
		tr.add(OpCrop, 0, 0, inter)
	}

	if w, h := imaging.Size(inter); w == tw && h == th {
		return inter, nil
	}
	out, err := u.cfg.Resampler.Resample(inter, tw, th, imaging.Precision)
	if err != nil {
		return nil, err
	}
	tr.add(OpResample, 0, imaging.Precision, out)
	return out, nil
}

func (u *Upscaler) checkTarget(tw, th int) error {
	limit := u.cfg.MaxTargetDimension
	if tw <= 0 || th <= 0 {
		return &imaging.InvalidDimensionsError{Width: tw, Height: th, Reason: "target must be positive"}
	}
	if tw > limit || th > limit {
		return &imaging.InvalidDimensionsError{Width: tw, Height: th, Reason: fmt.Sprintf("target exceeds maximum %d", limit)}
	}
	return nil
}

// neededScale is ceil(max(tw/ow, th/oh)) clamped to the configured range.
func (u *Upscaler) neededScale(ow, oh, tw, th int) int {
	s := math.Max(float64(tw)/float64(ow), float64(th)/float64(oh))
	n := int(math.Ceil(s))
	if n < u.cfg.MinNeededScale {
		n = u.cfg.MinNeededScale
	}
	if n > u.cfg.MaxNeededScale {
		n = u.cfg.MaxNeededScale
	}
	return n
}
