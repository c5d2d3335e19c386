// Package manager is the native-scale engine registry. It maps each nominal
// scale (the multipliers the upscaling runtime natively produces, e.g. 2 and 4)
// to one lazily constructed, cached engine handle and coordinates inference on
// it. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - device.go: device/precision/tile policy applied once at construction.
//   - types.go: handle state types (State, Instance, Snapshot).
//   - errors.go: error types and helpers (IsEngineInit, IsInference, IsTooBusy).
//   - ensure.go: GetOrCreate single-flight construction.
//   - admission.go: per-handle queueing; one inference pass in flight per handle.
//   - enhance.go: Enhance, the one-pass inference entry point.
//   - clear.go: explicit cache clear (the only removal path).
//   - status_report.go, sanity.go: Status/Snapshot and dependency checks.
//   - metrics.go: Prometheus collectors for loads and passes.
//
// Runtimes (the neural inference itself is always external):
//
//   - Subprocess: spawns a realesrgan-ncnn-vulkan compatible binary per pass
//     (adapter_subprocess.go).
//   - HTTP: posts PNG frames to a running inference server (adapter_http.go).
//
// External packages should treat this package as the engine layer and use
// public methods only (New/NewWithConfig, GetOrCreate, Enhance, Scales, Status).
package manager
