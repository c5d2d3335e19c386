package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"upscaled/internal/common/fsutil"
	"upscaled/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(o *options) *cobra.Command {
	defaultAddr := envOr("UPSCALED_ADDR", "")
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  upscaled serve --addr :8080 --models-dir ~/models/esrgan",
		Args:    cobra.NoArgs,
	}
	fl := cmd.Flags()
	fl.String("addr", defaultAddr, "HTTP listen address; defaults to UPSCALED_ADDR or :8080")
	fl.String("output-dir", "", "Directory for upscaled results")
	fl.String("upload-dir", "", "Directory for staged uploads")
	fl.Int("max-upload-mb", 0, "Upload size cap in MiB")
	fl.Bool("cors", false, "Enable CORS for the configured origins")
	fl.String("cors-origins", "", "Comma-separated allowed CORS origins")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := &o.cfg
		if v, _ := fl.GetString("addr"); v != "" {
			cfg.Addr = v
		}
		if v, _ := fl.GetString("output-dir"); v != "" {
			cfg.OutputDir = v
		}
		if v, _ := fl.GetString("upload-dir"); v != "" {
			cfg.UploadDir = v
		}
		if v, _ := fl.GetInt("max-upload-mb"); v > 0 {
			cfg.MaxUploadMB = v
		}
		if fl.Changed("cors") {
			cfg.CORSEnabled, _ = fl.GetBool("cors")
		}
		if v, _ := fl.GetString("cors-origins"); v != "" {
			cfg.CORSOrigins = splitCSV(v)
		}

		outDir, err := fsutil.EnsureDir(cfg.OutputDir)
		if err != nil {
			return err
		}
		upDir, err := fsutil.EnsureDir(cfg.UploadDir)
		if err != nil {
			return err
		}

		svc, err := buildService(o)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Manager.Close(); err != nil {
				o.log.Warn().Err(err).Msg("event=manager_close_error")
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		httpapi.SetLogger(o.log.With().Str("component", "http").Logger())
		httpapi.SetStorageDirs(upDir, outDir)
		httpapi.SetMaxBodyBytes(int64(cfg.MaxUploadMB) << 20)
		httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
		httpapi.SetBaseContext(ctx)

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           httpapi.NewMux(svc),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			o.log.Info().
				Str("addr", cfg.Addr).
				Str("models_dir", cfg.ModelsDir).
				Ints("native_scales", svc.NativeScales()).
				Msg("event=listen")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-ctx.Done():
		}
		o.log.Info().Msg("event=shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			o.log.Warn().Err(err).Msg("event=shutdown_error")
		}
		return nil
	}
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
