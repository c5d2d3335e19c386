package manager

import (
	"sort"
	"time"

	"upscaled/pkg/types"
)

// Snapshot returns a read-only view of the registry state.
func (m *Manager) Snapshot() Snapshot {
	scales := m.Scales()
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{Scales: scales, LoadsTotal: m.loads.Load(), LastError: m.lastErr}
	for scale, c := range m.cells {
		if c.inst != nil {
			s.Cached = append(s.Cached, scale)
		}
	}
	sort.Ints(s.Cached)
	return s
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	scales := m.Scales()
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		NativeScales:   scales,
		LoadsTotal:     m.loads.Load(),
		PassesTotal:    m.passes.Load(),
		LastError:      m.lastErr,
		UptimeSeconds:  int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix: now.Unix(),
	}
	resp.Engines = make([]types.EngineStatus, 0, len(m.cells))
	for scale, c := range m.cells {
		select {
		case <-c.done:
		default:
			resp.Engines = append(resp.Engines, types.EngineStatus{Scale: scale, State: string(StateLoading)})
			continue
		}
		inst := c.inst
		if inst == nil {
			continue
		}
		resp.Engines = append(resp.Engines, types.EngineStatus{
			Scale:         inst.Scale,
			State:         string(inst.State),
			Device:        string(inst.Device),
			Half:          inst.Half,
			Tile:          inst.Tile,
			WeightsPath:   inst.WeightsPath,
			LastUsed:      inst.LastUsed.Unix(),
			QueueLen:      len(inst.queueCh),
			Inflight:      len(inst.genCh),
			MaxQueueDepth: cap(inst.queueCh),
		})
	}
	sort.Slice(resp.Engines, func(i, j int) bool { return resp.Engines[i].Scale < resp.Engines[j].Scale })
	return resp
}
