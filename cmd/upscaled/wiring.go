package main

import (
	"fmt"
	"strings"
	"time"

	"upscaled/internal/config"
	"upscaled/internal/imaging"
	"upscaled/internal/manager"
	"upscaled/internal/registry"
	"upscaled/internal/upscale"
	"upscaled/pkg/types"
)

// service joins the orchestrator and the engine cache behind httpapi.Service.
type service struct {
	*upscale.Upscaler
	*manager.Manager
}

// httpConnectTimeout bounds the readiness probe of the http adapter.
const httpConnectTimeout = 5 * time.Second

// buildManager discovers weights and constructs the engine cache.
func buildManager(o *options) (*manager.Manager, error) {
	cfg := o.cfg
	reg, err := registry.Discover(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("load models from %s: %w", cfg.ModelsDir, err)
	}
	o.log.Info().Str("models_dir", cfg.ModelsDir).Int("weights", len(reg)).Msg("event=registry_loaded")

	adapter, err := buildAdapter(o)
	if err != nil {
		return nil, err
	}
	logger := o.log.With().Str("component", "manager").Logger()
	mcfg := manager.ManagerConfig{
		Registry:      reg,
		Discover:      func() ([]types.Model, error) { return registry.Discover(cfg.ModelsDir) },
		NativeScales:  cfg.NativeScales,
		Device:        devicePolicy(cfg),
		Adapter:       adapter,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitSeconds) * time.Second,
		Logger:        &logger,
	}
	if strings.EqualFold(cfg.Adapter, "subprocess") {
		mcfg.EngineBin = cfg.EngineBin
	}
	return manager.NewWithConfig(mcfg), nil
}

func buildAdapter(o *options) (manager.InferenceAdapter, error) {
	cfg := o.cfg
	switch strings.ToLower(cfg.Adapter) {
	case "http":
		if cfg.EngineURL == "" {
			return nil, fmt.Errorf("adapter http requires engine_url")
		}
		return manager.NewHTTPAdapter(cfg.EngineURL, httpConnectTimeout), nil
	case "", "subprocess":
		logger := o.log.With().Str("component", "engine").Logger()
		return manager.NewSubprocessAdapter(manager.SubprocessOptions{
			Bin:    cfg.EngineBin,
			Logger: &logger,
		}), nil
	}
	return nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}

func devicePolicy(cfg config.Config) manager.DevicePolicy {
	return manager.DevicePolicy{
		Device:  manager.ParseDevice(cfg.Device),
		GPUTile: cfg.GPUTile,
		CPUTile: cfg.CPUTile,
		TilePad: cfg.TilePad,
		Half:    cfg.Half,
	}
}

// buildUpscaler constructs the orchestrator over mgr.
func buildUpscaler(o *options, mgr *manager.Manager) (*upscale.Upscaler, error) {
	cfg := o.cfg
	rs, err := imaging.NewResampler(cfg.Resampler)
	if err != nil {
		return nil, err
	}
	logger := o.log.With().Str("component", "upscale").Logger()
	return upscale.New(mgr, upscale.Config{
		SupportedFactors:   cfg.SupportedFactors,
		FactorAnchor:       cfg.FactorAnchor,
		MaxTargetDimension: cfg.MaxTargetDimension,
		AspectTolerance:    cfg.AspectTolerance,
		MinNeededScale:     cfg.MinNeededScale,
		MaxNeededScale:     cfg.MaxNeededScale,
		Resampler:          rs,
		Logger:             &logger,
	}), nil
}

// buildService wires the whole stack. The caller owns Close on the manager.
func buildService(o *options) (*service, error) {
	mgr, err := buildManager(o)
	if err != nil {
		return nil, err
	}
	up, err := buildUpscaler(o, mgr)
	if err != nil {
		_ = mgr.Close()
		return nil, err
	}
	return &service{Upscaler: up, Manager: mgr}, nil
}
