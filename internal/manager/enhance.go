package manager

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Enhance runs exactly one inference pass at the nominal scale and returns a
// new image of size (w*scale, h*scale).
//
// Cancellation is advisory: once the pass has been admitted it runs to
// completion on a detached context, and only then is ctx consulted. A caller
// that left gets ctx.Err() and the result is dropped.
func (m *Manager) Enhance(ctx context.Context, scale int, img image.Image) (image.Image, error) {
	if img == nil {
		return nil, &InferenceError{Scale: scale, Err: fmt.Errorf("nil input image")}
	}
	inst, err := m.GetOrCreate(ctx, scale)
	if err != nil {
		return nil, err
	}
	release, err := m.beginInference(ctx, inst)
	if err != nil {
		return nil, err
	}
	defer release()

	b := img.Bounds()
	start := time.Now()
	m.log.Debug().Str("event", "infer_start").Int("scale", scale).Int("w", b.Dx()).Int("h", b.Dy()).Msg("manager")
	m.publish(Event{Name: "infer_start", Scale: scale, Fields: map[string]any{"w": b.Dx(), "h": b.Dy()}})

	out, err := m.runPass(context.WithoutCancel(ctx), inst, img)
	dur := time.Since(start)
	inferenceDuration.WithLabelValues(scaleLabel(scale)).Observe(dur.Seconds())
	if err == nil {
		ob := out.Bounds()
		if ob.Dx() != b.Dx()*scale || ob.Dy() != b.Dy()*scale {
			err = fmt.Errorf("engine returned %dx%d for %dx%d at x%d", ob.Dx(), ob.Dy(), b.Dx(), b.Dy(), scale)
		}
	}
	if err != nil {
		inferencePassesTotal.WithLabelValues(scaleLabel(scale), "error").Inc()
		m.log.Error().Str("event", "infer_error").Int("scale", scale).Dur("dur", dur).Err(err).Msg("manager")
		m.publish(Event{Name: "infer_error", Scale: scale, Fields: map[string]any{"error": err.Error()}})
		return nil, &InferenceError{Scale: scale, Err: err}
	}
	m.passes.Add(1)
	inferencePassesTotal.WithLabelValues(scaleLabel(scale), "ok").Inc()
	m.log.Debug().Str("event", "infer_done").Int("scale", scale).Dur("dur", dur).Msg("manager")
	m.publish(Event{Name: "infer_done", Scale: scale, Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})

	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	return out, nil
}

func (m *Manager) runPass(ctx context.Context, inst *Instance, img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("engine panic: %v", r)
		}
	}()
	out, err = inst.Engine.Enhance(ctx, img, inst.Scale)
	if err == nil && out == nil {
		err = fmt.Errorf("engine returned no image")
	}
	return out, err
}
