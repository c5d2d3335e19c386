package manager

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"upscaled/internal/registry"
	"upscaled/pkg/types"
)

// Manager owns every engine handle. Its only mutations are "insert on first
// construction" and the explicit Clear/ClearAll.
type Manager struct {
	mu       sync.RWMutex
	registry []types.Model
	// models and scales are rebuilt from registry on every rediscovery.
	models   map[int]types.Model
	scales   []int
	allowed  map[int]bool
	discover func() ([]types.Model, error)
	cells    map[int]*cell

	adapter   InferenceAdapter
	policy    DevicePolicy
	engineBin string

	// Queue config
	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration

	log       zerolog.Logger
	publisher EventPublisher

	loads     atomic.Uint64
	passes    atomic.Uint64
	lastErr   string
	startTime time.Time
}

// cell is a construct-once slot for one scale. done is closed when
// construction finishes; inst and err are immutable afterwards.
type cell struct {
	done chan struct{}
	inst *Instance
	err  error
}

func New(reg []types.Model, adapter InferenceAdapter) *Manager {
	return NewWithConfig(ManagerConfig{Registry: reg, Adapter: adapter})
}

// Scales returns the nominal scales that have weights, ascending. With a
// discovery source configured the weights are looked up again first.
func (m *Manager) Scales() []int {
	m.refresh()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.scales...)
}

// HasScale reports whether weights exist for scale.
func (m *Manager) HasScale(scale int) bool {
	_, ok := m.lookup(scale)
	if !ok {
		m.refresh()
		_, ok = m.lookup(scale)
	}
	return ok
}

func (m *Manager) lookup(scale int) (types.Model, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mdl, ok := m.models[scale]
	return mdl, ok
}

// refresh re-runs discovery. A failed discovery keeps the current registry.
func (m *Manager) refresh() {
	if m.discover == nil {
		return
	}
	reg, err := m.discover()
	if err != nil {
		m.log.Warn().Str("event", "registry_refresh_error").Err(err).Msg("manager")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.scales)
	m.setRegistryLocked(reg)
	if len(m.scales) != before {
		m.log.Info().Str("event", "registry_refresh").Ints("scales", m.scales).Msg("manager")
	}
}

// setRegistryLocked rebuilds models and scales from reg, honoring the
// native scale filter. Caller holds mu for writing.
func (m *Manager) setRegistryLocked(reg []types.Model) {
	m.registry = append([]types.Model(nil), reg...)
	m.models = make(map[int]types.Model)
	for s, mdl := range registry.ByScale(m.registry) {
		if m.allowed != nil && !m.allowed[s] {
			continue
		}
		m.models[s] = mdl
	}
	m.scales = m.scales[:0:0]
	for s := range m.models {
		m.scales = append(m.scales, s)
	}
	sort.Ints(m.scales)
}

// Ready reports whether any engine handle is constructed and ready.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cells {
		select {
		case <-c.done:
			if c.inst != nil && c.inst.State == StateReady {
				return true
			}
		default:
		}
	}
	return false
}

// ListModels returns a copy of the registry.
func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

// LoadsTotal is the number of successful engine constructions since start.
func (m *Manager) LoadsTotal() uint64 { return m.loads.Load() }

// SetEventPublisher installs an EventPublisher; nil restores the no-op one.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.publisher = noopPublisher{}
		return
	}
	m.publisher = p
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	p.Publish(e)
}
