package types

// UpscaleResponse is returned by POST /api/upscale.
type UpscaleResponse struct {
	// Always true on success; failures use ErrorResponse.
	Success bool `json:"success" example:"true"`
	// Name of the produced file, downloadable from /api/download/{filename}.
	// example: upscaled_2x_photo.png
	OutputFile string `json:"output_file" example:"upscaled_2x_photo.png"`
	// example: Image upscaled successfully
	Message string `json:"message" example:"Image upscaled successfully"`
	// Source dimensions as WxH.
	// example: 640x480
	OriginalSize string `json:"original_size" example:"640x480"`
	// Output dimensions as WxH.
	// example: 1280x960
	UpscaledSize string `json:"upscaled_size" example:"1280x960"`
	// Nominal scale of the engine pass that produced the intermediate image.
	// example: 4
	NativeScale int `json:"native_scale,omitempty" example:"4"`
	// Wall time spent in the orchestrator, in milliseconds.
	// example: 5230
	DurationMS int64 `json:"duration_ms,omitempty" example:"5230"`
}

// ScaleFactorsResponse is returned by GET /api/scale-factors.
type ScaleFactorsResponse struct {
	// Multipliers accepted in factor mode.
	// example: [2,3,5,10]
	ScaleFactors []int `json:"scale_factors" example:"2,3,5,10"`
	// Nominal scales with weights available on this host.
	// example: [2,4]
	NativeScales []int `json:"native_scales" example:"2,4"`
	// Largest accepted target dimension in resolution mode.
	// example: 20000
	MaxTargetDimension int `json:"max_target_dimension" example:"20000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid scale factor
	Error string `json:"error" example:"invalid scale factor"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// EngineStatus summarizes one cached engine handle for /status.
type EngineStatus struct {
	// Nominal scale this handle serves.
	// example: 4
	Scale int `json:"scale" example:"4"`
	// Lifecycle state (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Compute device selected at construction.
	// example: gpu
	Device string `json:"device" example:"gpu"`
	// Half precision enabled.
	// example: true
	Half bool `json:"half" example:"true"`
	// Tile size in pixels used for memory bounding.
	// example: 400
	Tile int `json:"tile" example:"400"`
	// Weights backing the handle.
	// example: /models/realesrgan-x4plus.param
	WeightsPath string `json:"weights_path" example:"/models/realesrgan-x4plus.param"`
	// Last time the handle served an inference pass (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Requests waiting for the handle.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Inference passes currently running (0 or 1).
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 8
	MaxQueueDepth int `json:"max_queue_depth" example:"8"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Cached engine handles.
	Engines []EngineStatus `json:"engines"`
	// Nominal scales with weights available.
	// example: [2,4]
	NativeScales []int `json:"native_scales"`
	// Total number of engine constructions since start.
	// example: 2
	LoadsTotal uint64 `json:"loads_total" example:"2"`
	// Total number of inference passes since start.
	// example: 17
	PassesTotal uint64 `json:"passes_total" example:"17"`
	// Last engine construction error, if any.
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
