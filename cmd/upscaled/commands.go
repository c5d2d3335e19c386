package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"upscaled/internal/imaging"
	"upscaled/internal/upscale"
	"upscaled/pkg/types"
)

func newUpscaleCmd(o *options) *cobra.Command {
	var (
		output string
		factor int
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "upscale <input>",
		Short: "Upscale one image file",
		Example: "  upscaled upscale photo.jpg --factor 3 -o photo_x3.jpg\n" +
			"  upscaled upscale photo.jpg --width 3840 --height 2160",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := cliRequest(factor, width, height)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			svc, err := buildService(o)
			if err != nil {
				return err
			}
			defer svc.Manager.Close()

			res, err := svc.UpscaleBytes(cmd.Context(), req, data)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[0], req)
			}
			written, err := writeImage(output, res.Image)
			if err != nil {
				return err
			}
			o.log.Info().
				Str("output", written).
				Int("native_scale", res.Trace.NativeScale).
				Int("passes", res.Trace.Passes()).
				Msg("event=upscale_done")
			return printJSON(cmd.OutOrStdout(), types.UpscaleResponse{
				Success:      true,
				OutputFile:   filepath.Base(written),
				Message:      "Image upscaled successfully",
				OriginalSize: fmt.Sprintf("%dx%d", res.OriginalWidth, res.OriginalHeight),
				UpscaledSize: fmt.Sprintf("%dx%d", res.FinalWidth, res.FinalHeight),
				NativeScale:  res.Trace.NativeScale,
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path; defaults next to the input")
	cmd.Flags().IntVar(&factor, "factor", 0, "Multiplier for factor mode")
	cmd.Flags().IntVar(&width, "width", 0, "Target width for resolution mode")
	cmd.Flags().IntVar(&height, "height", 0, "Target height for resolution mode")
	cmd.MarkFlagsRequiredTogether("width", "height")
	cmd.MarkFlagsMutuallyExclusive("factor", "width")
	return cmd
}

// cliRequest picks the mode from the flags; no flags means factor 2.
func cliRequest(factor, width, height int) (upscale.Request, error) {
	switch {
	case width != 0 || height != 0:
		if factor != 0 {
			return upscale.Request{}, errors.New("--factor cannot be combined with --width/--height")
		}
		return upscale.ResolutionRequest(width, height), nil
	case factor != 0:
		return upscale.FactorRequest(factor), nil
	}
	return upscale.FactorRequest(2), nil
}

func defaultOutput(input string, req upscale.Request) string {
	dir, name := filepath.Split(input)
	if req.Mode == upscale.ModeResolution {
		return filepath.Join(dir, fmt.Sprintf("upscaled_%dx%d_%s", req.Width, req.Height, name))
	}
	return filepath.Join(dir, fmt.Sprintf("upscaled_%dx_%s", req.Factor, name))
}

// writeImage encodes img by the extension of path. Formats without an
// encoder are written as PNG and the extension is adjusted.
func writeImage(path string, img image.Image) (string, error) {
	f, ok := imaging.FormatFromName(path)
	if !ok {
		f = imaging.FormatPNG
	}
	switch f {
	case imaging.FormatPNG, imaging.FormatJPEG, imaging.FormatBMP:
	default:
		path = path[:len(path)-len(filepath.Ext(path))] + ".png"
		f = imaging.FormatPNG
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upscaled-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := imaging.Encode(tmp, img, f); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

func newScalesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scales",
		Short: "Print supported factors and available native scales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(o)
			if err != nil {
				return err
			}
			defer svc.Manager.Close()
			return printJSON(cmd.OutOrStdout(), types.ScaleFactorsResponse{
				ScaleFactors:       svc.SupportedFactors(),
				NativeScales:       svc.NativeScales(),
				MaxTargetDimension: svc.MaxTargetDimension(),
			})
		},
	}
}

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report engine binary, weights and device without loading engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := buildManager(o)
			if err != nil {
				return err
			}
			defer mgr.Close()
			rep := mgr.SanityCheck()
			if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if rep.Error != "" {
				return fmt.Errorf("check failed: %s", rep.Error)
			}
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
