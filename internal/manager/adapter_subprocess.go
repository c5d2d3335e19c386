package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"upscaled/internal/common/fsutil"
	"upscaled/internal/imaging"
)

// stderrTail bounds how much runtime stderr is carried in an error.
const stderrTail = 4096

// subprocessAdapter runs a realesrgan-ncnn-vulkan compatible binary once per
// pass: frames go through PNG files in a private temp dir.
//
//	<bin> -i in.png -o out.png -s <scale> -m <models dir> -n <model name> -t <tile> -g <gpu id> -f png
type subprocessAdapter struct {
	bin       string
	gpuID     int
	extraArgs []string
	log       zerolog.Logger
}

// SubprocessOptions configures NewSubprocessAdapter.
type SubprocessOptions struct {
	// Bin is the runtime binary (path or name on PATH).
	Bin string
	// GPUID selects the GPU when the device is GPU. Default 0.
	GPUID     int
	ExtraArgs []string
	Logger    *zerolog.Logger
}

// NewSubprocessAdapter constructs a subprocess-backed adapter.
func NewSubprocessAdapter(opts SubprocessOptions) InferenceAdapter {
	a := &subprocessAdapter{bin: strings.TrimSpace(opts.Bin), gpuID: opts.GPUID, extraArgs: opts.ExtraArgs, log: zerolog.Nop()}
	if opts.Logger != nil {
		a.log = *opts.Logger
	}
	return a
}

// Start checks the binary and the weights. The runtime itself is loaded per
// pass, so nothing is spawned here.
func (a *subprocessAdapter) Start(spec EngineSpec) (Engine, error) {
	if a.bin == "" {
		return nil, ErrDependencyUnavailable("engine binary not configured")
	}
	bin, err := exec.LookPath(a.bin)
	if err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("engine binary %q not found: %v", a.bin, err))
	}
	if strings.TrimSpace(spec.WeightsPath) == "" {
		return nil, errors.New("weights path is empty")
	}
	if !fsutil.IsFile(spec.WeightsPath) {
		return nil, fmt.Errorf("weights not found: %s", spec.WeightsPath)
	}
	ext := strings.ToLower(filepath.Ext(spec.WeightsPath))
	if ext != ".param" && ext != ".bin" {
		return nil, fmt.Errorf("subprocess runtime needs ncnn .param/.bin weights, got %s", filepath.Base(spec.WeightsPath))
	}
	stem := strings.TrimSuffix(spec.WeightsPath, filepath.Ext(spec.WeightsPath))
	for _, pair := range []string{stem + ".param", stem + ".bin"} {
		if !fsutil.IsFile(pair) {
			return nil, fmt.Errorf("incomplete ncnn model: missing %s", filepath.Base(pair))
		}
	}
	gpu := -1
	if spec.Device == DeviceGPU {
		gpu = a.gpuID
	}
	return &subprocessEngine{
		a:         a,
		bin:       bin,
		modelsDir: filepath.Dir(spec.WeightsPath),
		modelName: filepath.Base(stem),
		spec:      spec,
		gpu:       gpu,
	}, nil
}

type subprocessEngine struct {
	a         *subprocessAdapter
	bin       string
	modelsDir string
	modelName string
	spec      EngineSpec
	gpu       int
}

func (e *subprocessEngine) args(in, out string, outscale int) []string {
	args := []string{
		"-i", in,
		"-o", out,
		"-s", strconv.Itoa(outscale),
		"-m", e.modelsDir,
		"-n", e.modelName,
		"-t", strconv.Itoa(e.spec.Tile),
		"-g", strconv.Itoa(e.gpu),
		"-f", "png",
	}
	return append(args, e.a.extraArgs...)
}

func (e *subprocessEngine) Enhance(ctx context.Context, img image.Image, outscale int) (image.Image, error) {
	dir, err := os.MkdirTemp("", "upscaled-pass-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	if err := writePNG(in, img); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, e.bin, e.args(in, out, outscale)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	e.a.log.Debug().Str("adapter", "subprocess").Str("event", "pass_start").Str("model", e.modelName).Int("scale", outscale).Msg("manager")
	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > stderrTail {
			tail = tail[len(tail)-stderrTail:]
		}
		return nil, fmt.Errorf("engine process: %w; stderr tail: %s", err, strings.TrimSpace(tail))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("engine produced no output: %w", err)
	}
	defer f.Close()
	res, _, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("engine output: %w", err)
	}
	return res, nil
}

func (e *subprocessEngine) Close() error { return nil }

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := imaging.Encode(f, img, imaging.FormatPNG); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
