package manager

import "time"

// Clear drains and closes the engine handle for scale and removes it from the
// cache. A construction in progress is waited for first. The next request for
// the scale constructs a fresh handle. Clearing an absent scale is a no-op.
func (m *Manager) Clear(scale int) error {
	m.mu.RLock()
	c := m.cells[scale]
	m.mu.RUnlock()
	if c == nil {
		return nil
	}
	<-c.done
	if c.inst == nil {
		return nil
	}
	inst := c.inst

	m.mu.Lock()
	inst.State = StateDraining
	m.mu.Unlock()
	m.publish(Event{Name: "engine_clear_start", Scale: scale})

	deadline := time.Now().Add(m.drainTimeout)
	for {
		qlen, inflight := len(inst.queueCh), len(inst.genCh)
		if inflight == 0 && qlen == 0 {
			break
		}
		if time.Now().After(deadline) {
			m.log.Warn().Str("event", "engine_clear_timeout").Int("scale", scale).Int("inflight", inflight).Int("queue", qlen).Msg("manager")
			m.publish(Event{Name: "engine_clear_timeout", Scale: scale, Fields: map[string]any{"inflight": inflight, "queue": qlen}})
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	m.mu.Lock()
	if m.cells[scale] == c {
		delete(m.cells, scale)
	}
	m.mu.Unlock()

	err := inst.Engine.Close()
	m.log.Info().Str("event", "engine_clear").Int("scale", scale).Msg("manager")
	m.publish(Event{Name: "engine_clear", Scale: scale})
	return err
}

// ClearAll clears every cached handle and returns the first close error.
func (m *Manager) ClearAll() error {
	m.mu.RLock()
	scales := make([]int, 0, len(m.cells))
	for s := range m.cells {
		scales = append(scales, s)
	}
	m.mu.RUnlock()
	var first error
	for _, s := range scales {
		if err := m.Clear(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close releases every engine. It is ClearAll under the name shutdown code expects.
func (m *Manager) Close() error { return m.ClearAll() }
