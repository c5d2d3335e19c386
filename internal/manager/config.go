package manager

import (
	"time"

	"github.com/rs/zerolog"

	"upscaled/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 8
	defaultMaxWait       = 10 * time.Minute
	defaultDrainTimeout  = 30 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Registry lists discovered weights; each model's Scale is a candidate
	// nominal scale.
	Registry []types.Model
	// Discover, when set, is re-run to pick up weights that appear after
	// startup. Its result replaces Registry; errors keep the last good one.
	Discover func() ([]types.Model, error)
	// NativeScales restricts the usable scales to this set. Empty means every
	// scale present in Registry.
	NativeScales []int
	Device       DevicePolicy
	// Adapter constructs engines. Nil leaves every scale unavailable.
	Adapter       InferenceAdapter
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	// EngineBin is reported by SanityCheck for subprocess runtimes.
	EngineBin string
	Logger    *zerolog.Logger
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		cells:     make(map[int]*cell),
		discover:  cfg.Discover,
		policy:    cfg.Device,
		adapter:   cfg.Adapter,
		engineBin: cfg.EngineBin,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	// Apply defaults if unset
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if cfg.DrainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	} else {
		m.drainTimeout = cfg.DrainTimeout
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	} else {
		m.log = zerolog.Nop()
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.adapter == nil {
		m.adapter = unavailableAdapter{}
	}

	if len(cfg.NativeScales) > 0 {
		m.allowed = make(map[int]bool, len(cfg.NativeScales))
		for _, sc := range cfg.NativeScales {
			m.allowed[sc] = true
		}
	}
	m.setRegistryLocked(cfg.Registry)
	return m
}

// unavailableAdapter refuses every construction. It is installed when no
// runtime is configured so that requests fail with EngineInitError instead
// of a nil dereference.
type unavailableAdapter struct{}

func (unavailableAdapter) Start(EngineSpec) (Engine, error) {
	return nil, ErrDependencyUnavailable("no inference runtime configured")
}
