// Package upscale turns a fixed set of native engine scales into two request
// modes: an integer factor of the original size, and an exact target
// resolution. Each request runs at most one inference pass and then corrects
// the intermediate raster with the imaging resampling policies:
//
//   - factor.go: Factor mode (native pass, optional single corrective resample).
//   - resolution.go: Resolution mode (needed scale, anchor pass, center crop,
//     final precision resample).
//   - upscaler.go: the Upscaler facade dispatching on Request.Mode.
//
// The package performs no concurrency of its own; engine caching and
// per-engine serialization live in internal/manager.
package upscale
