package manager

import (
	"os/exec"
	"sort"

	"upscaled/internal/common/fsutil"
)

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	EngineBin      string   `json:"engine_bin,omitempty"`
	EngineBinFound bool     `json:"engine_bin_found"`
	Device         string   `json:"device"`
	Half           bool     `json:"half"`
	Tile           int      `json:"tile"`
	Scales         []int    `json:"scales"`
	MissingWeights []string `json:"missing_weights,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// SanityCheck validates that weights and the engine binary are present and
// reports the device the policy would choose. It does not construct engines
// and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := m.policy.resolve()
	rep := SanityReport{
		EngineBin: m.engineBin,
		Device:    string(r.device),
		Half:      r.half,
		Tile:      r.tile,
		Scales:    m.Scales(),
	}
	for _, s := range rep.Scales {
		mdl, _ := m.lookup(s)
		if !fsutil.IsFile(mdl.Path) {
			rep.MissingWeights = append(rep.MissingWeights, mdl.Path)
		}
	}
	sort.Strings(rep.MissingWeights)
	if m.engineBin != "" {
		if _, err := exec.LookPath(m.engineBin); err == nil {
			rep.EngineBinFound = true
		} else {
			rep.Error = err.Error()
		}
	}
	if len(rep.Scales) == 0 && rep.Error == "" {
		rep.Error = "no weights found for any nominal scale"
	}
	return rep
}
