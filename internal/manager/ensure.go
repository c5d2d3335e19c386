package manager

import (
	"context"
	"fmt"
	"time"
)

// GetOrCreate returns the engine handle for scale, constructing it on first
// use. Concurrent callers for the same scale share one construction: the
// first runs it, the others wait for it (or leave when ctx is done). A failed
// construction is reported to everyone waiting on it and then forgotten, so
// the next call retries.
func (m *Manager) GetOrCreate(ctx context.Context, scale int) (*Instance, error) {
	mdl, ok := m.lookup(scale)
	if !ok {
		m.refresh()
		if mdl, ok = m.lookup(scale); !ok {
			return nil, &EngineInitError{Scale: scale, Err: errNoWeights}
		}
	}

	m.mu.Lock()
	c, existed := m.cells[scale]
	if !existed {
		c = &cell{done: make(chan struct{})}
		m.cells[scale] = c
	}
	m.mu.Unlock()

	if !existed {
		m.construct(scale, mdl.Path, c)
		return c.inst, c.err
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	m.mu.Lock()
	c.inst.LastUsed = time.Now()
	m.mu.Unlock()
	return c.inst, nil
}

// construct builds the engine for c. It always closes c.done, and on failure
// removes c from the cache before doing so.
func (m *Manager) construct(scale int, weights string, c *cell) {
	start := time.Now()
	r := m.policy.resolve()
	inst := &Instance{
		Scale:       scale,
		WeightsPath: weights,
		Device:      r.device,
		Half:        r.half,
		Tile:        r.tile,
		TilePad:     r.tilePad,
		State:       StateLoading,
		CreatedAt:   start,
		LastUsed:    start,
		genCh:       make(chan struct{}, 1),
		queueCh:     make(chan struct{}, m.maxQueueDepth),
	}
	m.log.Info().Str("event", "engine_create_start").Int("scale", scale).
		Str("device", string(r.device)).Bool("half", r.half).Int("tile", r.tile).Str("weights", weights).Msg("manager")
	m.publish(Event{Name: "engine_create_start", Scale: scale, Fields: map[string]any{"device": string(r.device), "tile": r.tile}})

	eng, err := m.startEngine(inst.Spec())

	m.mu.Lock()
	if err != nil {
		c.err = &EngineInitError{Scale: scale, Err: err}
		if m.cells[scale] == c {
			delete(m.cells, scale)
		}
		m.lastErr = c.err.Error()
	} else {
		inst.Engine = eng
		inst.State = StateReady
		c.inst = inst
	}
	close(c.done)
	m.mu.Unlock()

	if err != nil {
		engineLoadsTotal.WithLabelValues(scaleLabel(scale), "error").Inc()
		m.log.Error().Str("event", "engine_create_error").Int("scale", scale).Err(err).Msg("manager")
		m.publish(Event{Name: "engine_create_error", Scale: scale, Fields: map[string]any{"error": err.Error()}})
		return
	}
	m.loads.Add(1)
	engineLoadsTotal.WithLabelValues(scaleLabel(scale), "ok").Inc()
	dur := time.Since(start)
	m.log.Info().Str("event", "engine_create_ready").Int("scale", scale).Dur("dur", dur).Msg("manager")
	m.publish(Event{Name: "engine_create_ready", Scale: scale, Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})
}

// startEngine calls the adapter, converting a panic into an error so that a
// misbehaving runtime cannot leave a cell open forever.
func (m *Manager) startEngine(spec EngineSpec) (eng Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			eng, err = nil, fmt.Errorf("adapter panic: %v", r)
		}
	}()
	eng, err = m.adapter.Start(spec)
	if err == nil && eng == nil {
		err = fmt.Errorf("adapter returned nil engine")
	}
	return eng, err
}
