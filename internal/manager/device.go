package manager

import (
	"os/exec"
	"strings"

	"upscaled/internal/common/fsutil"
)

// Device is a compute device class.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceGPU  Device = "gpu"
	DeviceCPU  Device = "cpu"
)

// ParseDevice maps a config string to a Device; unknown values mean auto.
func ParseDevice(s string) Device {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpu", "cuda", "vulkan":
		return DeviceGPU
	case "cpu":
		return DeviceCPU
	}
	return DeviceAuto
}

// Defaults applied by DevicePolicy when fields are unset.
const (
	defaultGPUTile = 400
	defaultCPUTile = 200
	defaultTilePad = 10
)

// DevicePolicy is the single place device, precision and tiling are decided.
// It is a throughput policy; every field can be overridden by configuration.
type DevicePolicy struct {
	Device  Device
	GPUTile int
	CPUTile int
	TilePad int
	// Half forces half precision on or off. Nil means "on for GPU, off for CPU".
	Half *bool
	// Detect reports whether a GPU-class device is usable. Nil uses DetectGPU.
	Detect func() bool
}

// resolved is what an engine is constructed with.
type resolved struct {
	device  Device
	half    bool
	tile    int
	tilePad int
}

func (p DevicePolicy) resolve() resolved {
	dev := p.Device
	if dev == "" || dev == DeviceAuto {
		detect := p.Detect
		if detect == nil {
			detect = DetectGPU
		}
		if detect() {
			dev = DeviceGPU
		} else {
			dev = DeviceCPU
		}
	}
	r := resolved{device: dev, tilePad: p.TilePad}
	if r.tilePad <= 0 {
		r.tilePad = defaultTilePad
	}
	if dev == DeviceGPU {
		r.tile = p.GPUTile
		if r.tile <= 0 {
			r.tile = defaultGPUTile
		}
		r.half = true
	} else {
		r.tile = p.CPUTile
		if r.tile <= 0 {
			r.tile = defaultCPUTile
		}
	}
	if p.Half != nil {
		r.half = *p.Half
	}
	return r
}

// gpuProbePaths are device nodes whose presence implies a usable GPU
// (NVIDIA driver or a DRM render node for Vulkan).
var gpuProbePaths = []string{"/dev/nvidia0", "/dev/nvidiactl", "/dev/dri/renderD128"}

// DetectGPU is a best-effort probe for a GPU-class device.
func DetectGPU() bool {
	for _, p := range gpuProbePaths {
		if fsutil.PathExists(p) {
			return true
		}
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}
