package manager

import (
	"context"
	"image"
)

// InferenceAdapter abstracts the upscaling runtime used by the Manager.
// Concrete implementations (subprocess, HTTP) construct one Engine per handle.
type InferenceAdapter interface {
	// Start builds an engine for spec. It is called at most once per live
	// handle and may be expensive (model load, device init).
	Start(spec EngineSpec) (Engine, error)
}

// Engine is a constructed runtime bound to one nominal scale.
type Engine interface {
	// Enhance upscales img by outscale and returns a new image. It is
	// deterministic for a given engine and input and tiles internally.
	// The Manager never calls Enhance concurrently on one Engine.
	Enhance(ctx context.Context, img image.Image, outscale int) (image.Image, error)
	// Close releases any resources associated with the engine.
	Close() error
}

// EngineSpec captures construction parameters handed to the adapter.
type EngineSpec struct {
	Scale       int
	WeightsPath string
	Device      Device
	Half        bool
	Tile        int
	TilePad     int
}
