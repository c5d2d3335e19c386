package manager

import "time"

// State represents lifecycle state of an engine handle.
type State string

const (
	StateReady    State = "ready"
	StateLoading  State = "loading"
	StateError    State = "error"
	StateDraining State = "draining"
)

// Instance is the engine handle for one nominal scale: the constructed runtime
// plus the device choices it was built with. At most one live Instance exists
// per scale.
type Instance struct {
	Scale       int
	WeightsPath string
	Device      Device
	Half        bool
	Tile        int
	TilePad     int
	State       State
	CreatedAt   time.Time
	LastUsed    time.Time
	// Queueing primitives
	genCh   chan struct{} // size 1: single in-flight pass
	queueCh chan struct{} // buffered: queue slots
	// Engine backing this handle.
	Engine Engine
}

// Spec returns the construction parameters the handle was built from.
func (i *Instance) Spec() EngineSpec {
	return EngineSpec{
		Scale:       i.Scale,
		WeightsPath: i.WeightsPath,
		Device:      i.Device,
		Half:        i.Half,
		Tile:        i.Tile,
		TilePad:     i.TilePad,
	}
}

// Snapshot is a read-only projection of the registry state.
type Snapshot struct {
	Scales     []int
	Cached     []int
	LoadsTotal uint64
	LastError  string
}
