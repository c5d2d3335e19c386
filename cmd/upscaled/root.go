package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"upscaled/internal/config"
)

// options carries the resolved configuration for every subcommand.
type options struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{configPath: os.Getenv("UPSCALED_CONFIG")}
	root := &cobra.Command{
		Use:           "upscaled",
		Short:         "Adaptive multi-pass image upscaler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", opts.configPath, "Config file (.yaml, .json, .toml); defaults to UPSCALED_CONFIG")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.String("models-dir", config.DefaultModelsDir, "Directory holding weight files or models_config.json")
	pf.String("adapter", config.DefaultAdapter, "Inference runtime: subprocess|http")
	pf.String("engine-bin", config.DefaultEngineBin, "Engine executable for the subprocess adapter")
	pf.String("engine-url", "", "Base URL of the inference server for the http adapter")
	pf.String("device", config.DefaultDevice, "Compute device: auto|gpu|cpu")
	pf.String("resampler", "draw", "Resampling backend: draw|opencv")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var cfg config.Config
		if opts.configPath != "" {
			c, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = c
		}
		applyFlagOverrides(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		opts.cfg = cfg.WithDefaults()
		opts.log = newLogger(cmd.ErrOrStderr(), opts.cfg.LogLevel)
		return nil
	}

	root.AddCommand(
		newServeCmd(opts),
		newUpscaleCmd(opts),
		newScalesCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

// applyFlagOverrides copies explicitly set persistent flags over file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, dst *string) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	set("log-level", &cfg.LogLevel)
	set("models-dir", &cfg.ModelsDir)
	set("adapter", &cfg.Adapter)
	set("engine-bin", &cfg.EngineBin)
	set("engine-url", &cfg.EngineURL)
	set("device", &cfg.Device)
	set("resampler", &cfg.Resampler)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
