package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"upscaled/internal/common/fsutil"
	"upscaled/pkg/types"
)

// weightExts lists recognized weight formats in preference order. ncnn
// models come as a .param/.bin pair sharing a stem; the .param wins.
var weightExts = []string{".param", ".pth", ".onnx", ".bin"}

var (
	scaleSuffix = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])x(\d{1,2})(?:[^0-9]|$)`)
	scalePrefix = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(\d{1,2})x(?:[^a-z0-9]|$)`)
)

// ParseScale extracts the nominal scale from a weights file name such as
// "RealESRGAN_x4plus.pth", "realesr-animevideov3-x2.param" or "4x-UltraSharp.pth".
func ParseScale(name string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, re := range []*regexp.Regexp{scaleSuffix, scalePrefix} {
		if m := re.FindStringSubmatch(stem); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// LoadDir scans a directory for weight files and builds a registry from file names.
// Files without a recognizable scale are skipped. ID is the file stem; Path is absolute.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	byStem := make(map[string]types.Model)
	rank := func(ext string) int {
		for i, e := range weightExts {
			if e == ext {
				return i
			}
		}
		return -1
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		r := rank(ext)
		if r < 0 {
			continue
		}
		scale, ok := ParseScale(name)
		if !ok {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if prev, seen := byStem[stem]; seen && rank("."+prev.Format) <= r {
			continue
		}
		byStem[stem] = types.Model{
			ID:     stem,
			Name:   stem,
			Path:   filepath.Join(abs, name),
			Scale:  scale,
			Format: strings.TrimPrefix(ext, "."),
		}
	}
	models := make([]types.Model, 0, len(byStem))
	for _, m := range byStem {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// modelsConfig mirrors models_config.json written by the installer.
type modelsConfig struct {
	ModelsPath string `json:"models_path"`
	Presets    map[string]struct {
		ModelFile   string `json:"model_file"`
		DisplayName string `json:"display_name"`
		Scale       int    `json:"scale,omitempty"`
	} `json:"presets"`
}

// LoadModelsConfig reads an installer-style models_config.json. Presets whose
// weight file is missing are still returned so that construction can report
// a precise error later. A preset without an explicit scale takes it from the
// file name.
func LoadModelsConfig(path string) ([]types.Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mc modelsConfig
	if err := json.Unmarshal(b, &mc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root, err := fsutil.ExpandHome(mc.ModelsPath)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = filepath.Dir(path)
	}
	var models []types.Model
	for id, p := range mc.Presets {
		if strings.TrimSpace(p.ModelFile) == "" {
			continue
		}
		scale := p.Scale
		if scale <= 0 {
			s, ok := ParseScale(p.ModelFile)
			if !ok {
				return nil, fmt.Errorf("preset %q: cannot infer scale from %q", id, p.ModelFile)
			}
			scale = s
		}
		name := p.DisplayName
		if name == "" {
			name = id
		}
		mp := p.ModelFile
		if !filepath.IsAbs(mp) {
			mp = filepath.Join(root, mp)
		}
		models = append(models, types.Model{
			ID:     id,
			Name:   name,
			Path:   mp,
			Scale:  scale,
			Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(mp)), "."),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// ByScale indexes models by nominal scale. The first model (by ID order) wins
// when several weights share a scale.
func ByScale(models []types.Model) map[int]types.Model {
	out := make(map[int]types.Model, len(models))
	for _, m := range models {
		if _, ok := out[m.Scale]; !ok {
			out[m.Scale] = m
		}
	}
	return out
}

// ModelsConfigName is the installer's manifest file inside a models directory.
const ModelsConfigName = "models_config.json"

// Discover loads the registry for dir: from its models_config.json when
// present, otherwise by scanning file names.
func Discover(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if p := filepath.Join(base, ModelsConfigName); fsutil.IsFile(p) {
		return LoadModelsConfig(p)
	}
	return LoadDir(base)
}
