package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service and the CLI.
// Zero values mean "unspecified" and will be replaced by defaults downstream.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	OutputDir   string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	UploadDir   string `json:"upload_dir" yaml:"upload_dir" toml:"upload_dir"`
	MaxUploadMB int    `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// Engine runtime
	Adapter   string `json:"adapter" yaml:"adapter" toml:"adapter"`
	EngineBin string `json:"engine_bin" yaml:"engine_bin" toml:"engine_bin"`
	EngineURL string `json:"engine_url" yaml:"engine_url" toml:"engine_url"`
	Device    string `json:"device" yaml:"device" toml:"device"`
	GPUTile   int    `json:"gpu_tile" yaml:"gpu_tile" toml:"gpu_tile"`
	CPUTile   int    `json:"cpu_tile" yaml:"cpu_tile" toml:"cpu_tile"`
	TilePad   int    `json:"tile_pad" yaml:"tile_pad" toml:"tile_pad"`
	// Half overrides the device default when set.
	Half           *bool `json:"half,omitempty" yaml:"half,omitempty" toml:"half,omitempty"`
	MaxQueueDepth  int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds int   `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`

	// Orchestration policy
	NativeScales       []int   `json:"native_scales" yaml:"native_scales" toml:"native_scales"`
	SupportedFactors   []int   `json:"supported_factors" yaml:"supported_factors" toml:"supported_factors"`
	FactorAnchor       int     `json:"factor_anchor" yaml:"factor_anchor" toml:"factor_anchor"`
	MaxTargetDimension int     `json:"max_target_dimension" yaml:"max_target_dimension" toml:"max_target_dimension"`
	AspectTolerance    float64 `json:"aspect_tolerance" yaml:"aspect_tolerance" toml:"aspect_tolerance"`
	MinNeededScale     int     `json:"min_needed_scale" yaml:"min_needed_scale" toml:"min_needed_scale"`
	MaxNeededScale     int     `json:"max_needed_scale" yaml:"max_needed_scale" toml:"max_needed_scale"`
	Resampler          string  `json:"resampler" yaml:"resampler" toml:"resampler"`

	// HTTP
	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values that can never be valid. It does not apply defaults.
func (c Config) Validate() error {
	switch strings.ToLower(c.Device) {
	case "", "auto", "gpu", "cpu":
	default:
		return fmt.Errorf("device must be auto|gpu|cpu, got %q", c.Device)
	}
	switch strings.ToLower(c.Adapter) {
	case "", "subprocess", "http":
	default:
		return fmt.Errorf("adapter must be subprocess|http, got %q", c.Adapter)
	}
	switch strings.ToLower(c.Resampler) {
	case "", "draw", "opencv":
	default:
		return fmt.Errorf("resampler must be draw|opencv, got %q", c.Resampler)
	}
	for _, s := range c.NativeScales {
		if s < 1 {
			return fmt.Errorf("native_scales: non-positive scale %d", s)
		}
	}
	for _, f := range c.SupportedFactors {
		if f < 1 {
			return fmt.Errorf("supported_factors: non-positive factor %d", f)
		}
	}
	if c.AspectTolerance < 0 {
		return fmt.Errorf("aspect_tolerance must be >= 0")
	}
	if c.MinNeededScale > 0 && c.MaxNeededScale > 0 && c.MinNeededScale > c.MaxNeededScale {
		return fmt.Errorf("min_needed_scale %d exceeds max_needed_scale %d", c.MinNeededScale, c.MaxNeededScale)
	}
	return nil
}

// Defaults used by WithDefaults.
const (
	DefaultAddr           = ":8080"
	DefaultModelsDir      = "models"
	DefaultOutputDir      = "outputs"
	DefaultUploadDir      = "uploads"
	DefaultMaxUploadMB    = 50
	DefaultLogLevel       = "info"
	DefaultAdapter        = "subprocess"
	DefaultEngineBin      = "realesrgan-ncnn-vulkan"
	DefaultDevice         = "auto"
	DefaultMaxWaitSeconds = 600
)

// WithDefaults fills unset service-level fields. Orchestration and device
// fields stay zero; their owners apply their own defaults.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.UploadDir == "" {
		c.UploadDir = DefaultUploadDir
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Adapter == "" {
		c.Adapter = DefaultAdapter
	}
	if c.EngineBin == "" {
		c.EngineBin = DefaultEngineBin
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.MaxWaitSeconds <= 0 {
		c.MaxWaitSeconds = DefaultMaxWaitSeconds
	}
	return c
}
