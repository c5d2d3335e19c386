package upscale

import (
	"context"
	"image"

	"upscaled/internal/imaging"
)

// Engine is the native-scale inference capability. *manager.Manager
// satisfies it.
type Engine interface {
	// Enhance runs one inference pass at a native scale.
	Enhance(ctx context.Context, scale int, img image.Image) (image.Image, error)
	// Scales lists the native scales that can be requested, ascending.
	Scales() []int
}

// Mode selects the request variant.
type Mode string

const (
	ModeFactor     Mode = "factor"
	ModeResolution Mode = "resolution"
)

// Request is either a factor request (Factor set) or a resolution request
// (Width and Height set), selected by Mode.
type Request struct {
	Mode   Mode
	Factor int
	Width  int
	Height int
}

// FactorRequest builds a factor-mode request.
func FactorRequest(m int) Request { return Request{Mode: ModeFactor, Factor: m} }

// ResolutionRequest builds a resolution-mode request.
func ResolutionRequest(w, h int) Request { return Request{Mode: ModeResolution, Width: w, Height: h} }

// Step operations recorded in a Trace.
const (
	OpEnhance  = "enhance"
	OpResample = "resample"
	OpCrop     = "crop"
)

// Step is one transform applied to the raster. Width and Height are the size
// after the step.
type Step struct {
	Op     string `json:"op"`
	Scale  int    `json:"scale,omitempty"`
	Policy string `json:"policy,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Trace describes how a result was produced.
type Trace struct {
	Mode        Mode   `json:"mode"`
	NativeScale int    `json:"native_scale"`
	NeededScale int    `json:"needed_scale,omitempty"`
	Steps       []Step `json:"steps"`
}

// Passes counts the inference passes in the trace.
func (t Trace) Passes() int {
	n := 0
	for _, s := range t.Steps {
		if s.Op == OpEnhance {
			n++
		}
	}
	return n
}

// Has reports whether any step used op (and, when policy is not empty, that
// policy).
func (t Trace) Has(op, policy string) bool {
	for _, s := range t.Steps {
		if s.Op == op && (policy == "" || s.Policy == policy) {
			return true
		}
	}
	return false
}

func (t *Trace) add(op string, scale int, p imaging.Policy, img image.Image) {
	w, h := imaging.Size(img)
	s := Step{Op: op, Scale: scale, Width: w, Height: h}
	if p != 0 {
		s.Policy = p.String()
	}
	t.Steps = append(t.Steps, s)
}

// Result is the output of one request.
type Result struct {
	Image          image.Image
	OriginalWidth  int
	OriginalHeight int
	FinalWidth     int
	FinalHeight    int
	// SourceFormat is set by UpscaleBytes to the decoded input format.
	SourceFormat imaging.Format
	Trace        Trace
}
