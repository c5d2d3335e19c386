package httpapi

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"upscaled/internal/imaging"
	"upscaled/internal/upscale"
	"upscaled/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Upscale(ctx context.Context, req upscale.Request, img image.Image) (upscale.Result, error)
	SupportedFactors() []int
	NativeScales() []int
	MaxTargetDimension() int
	Status() types.StatusResponse
	Ready() bool
}

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints only; images are already compressed.
		r.Use(middleware.Compress(5, "application/json"))
		r.Get("/api/scale-factors", handleScaleFactors(svc))
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, svc.Status())
		})
	})
	r.Post("/api/upscale", handleUpscale(svc))
	r.Get("/api/download/{filename}", handleDownload)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Ready once any native scale exists; engines are constructed on demand.
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if len(svc.NativeScales()) > 0 {
			w.WriteHeader(http.StatusOK)
			if svc.Ready() {
				w.Write([]byte("ready"))
			} else {
				w.Write([]byte("ready (engines load on demand)"))
			}
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no native scales"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleScaleFactors godoc
// @Summary      Supported scale factors
// @Description  Factor-mode multipliers, native engine scales and the resolution-mode limit.
// @Tags         upscale
// @Produce      json
// @Success      200  {object}  types.ScaleFactorsResponse
// @Router       /api/scale-factors [get]
func handleScaleFactors(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ScaleFactorsResponse{
			ScaleFactors:       svc.SupportedFactors(),
			NativeScales:       svc.NativeScales(),
			MaxTargetDimension: svc.MaxTargetDimension(),
		})
	}
}

// handleUpscale godoc
// @Summary      Upscale an image
// @Description  Upscales by an integer factor (mode=factor) or to an exact resolution (mode=resolution).
// @Tags         upscale
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "png, jpg, jpeg, webp or bmp"
// @Param        mode           formData  string  false  "factor (default) or resolution"
// @Param        scale_factor   formData  int     false  "factor mode multiplier (default 2)"
// @Param        target_width   formData  int     false  "resolution mode width"
// @Param        target_height  formData  int     false  "resolution mode height"
// @Success      200  {object}  types.UpscaleResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      413  {object}  types.ErrorResponse
// @Failure      429  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /api/upscale [post]
func handleUpscale(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		fail := func(status int, err error) {
			if status == http.StatusTooManyRequests {
				IncrementBackpressure("engine_queue")
			}
			writeJSONError(w, status, err.Error())
			logUpscaleEnd(r, lvl, status, start, err)
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				fail(http.StatusRequestEntityTooLarge, fmt.Errorf("file too large (max %d MB)", maxBodyBytes>>20))
				return
			}
			fail(http.StatusBadRequest, errors.New("invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, hdr, err := r.FormFile("file")
		if err != nil {
			fail(http.StatusBadRequest, errors.New("no file provided"))
			return
		}
		defer file.Close()
		name := sanitizeFilename(hdr.Filename)
		if name == "" {
			fail(http.StatusBadRequest, errors.New("no file selected"))
			return
		}
		if !allowedFile(name) {
			fail(http.StatusBadRequest, errors.New("invalid file type; allowed: png, jpg, jpeg, webp, bmp"))
			return
		}
		req, err := parseRequest(r)
		if err != nil {
			fail(http.StatusBadRequest, err)
			return
		}

		img, err := stageAndDecode(file, name)
		if err != nil {
			fail(statusFor(err), err)
			return
		}

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res, err := svc.Upscale(ctx, req, img)
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				logUpscaleEnd(r, lvl, 499, start, err)
				return
			}
			fail(statusFor(err), err)
			return
		}

		outName, err := writeOutput(res.Image, outputName(req, name))
		if err != nil {
			fail(http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, types.UpscaleResponse{
			Success:      true,
			OutputFile:   outName,
			Message:      "Image upscaled successfully",
			OriginalSize: fmt.Sprintf("%dx%d", res.OriginalWidth, res.OriginalHeight),
			UpscaledSize: fmt.Sprintf("%dx%d", res.FinalWidth, res.FinalHeight),
			NativeScale:  res.Trace.NativeScale,
			DurationMS:   time.Since(start).Milliseconds(),
		})
		logUpscaleEnd(r, lvl, http.StatusOK, start, nil)
	}
}

// handleDownload godoc
// @Summary      Download an upscaled image
// @Tags         upscale
// @Produce      octet-stream
// @Param        filename  path  string  true  "output_file from /api/upscale"
// @Success      200
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/download/{filename} [get]
func handleDownload(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "filename")
	name := sanitizeFilename(raw)
	if name == "" || name != raw {
		writeJSONError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	p := filepath.Join(outputDir, name)
	if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
		writeJSONError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, p)
}

// parseRequest reads mode, scale_factor, target_width and target_height.
func parseRequest(r *http.Request) (upscale.Request, error) {
	mode := strings.ToLower(strings.TrimSpace(r.FormValue("mode")))
	switch upscale.Mode(mode) {
	case "", upscale.ModeFactor:
		m := 2
		if v := strings.TrimSpace(r.FormValue("scale_factor")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return upscale.Request{}, fmt.Errorf("invalid scale_factor %q", v)
			}
			m = n
		}
		return upscale.FactorRequest(m), nil
	case upscale.ModeResolution:
		tw, err := strconv.Atoi(strings.TrimSpace(r.FormValue("target_width")))
		if err != nil {
			return upscale.Request{}, errors.New("target_width must be an integer")
		}
		th, err := strconv.Atoi(strings.TrimSpace(r.FormValue("target_height")))
		if err != nil {
			return upscale.Request{}, errors.New("target_height must be an integer")
		}
		return upscale.ResolutionRequest(tw, th), nil
	}
	return upscale.Request{}, fmt.Errorf("invalid mode %q", mode)
}

// stageAndDecode copies the upload into uploadDir, decodes it and removes
// the staged file.
func stageAndDecode(src io.Reader, name string) (image.Image, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	f, err := os.CreateTemp(uploadDir, "upload-*-"+name)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	img, _, err := imaging.Decode(f)
	return img, err
}

// outputName is upscaled_{m}x_{name} for factor requests and
// upscaled_{w}x{h}_{name} for resolution requests.
func outputName(req upscale.Request, name string) string {
	if req.Mode == upscale.ModeResolution {
		return fmt.Sprintf("upscaled_%dx%d_%s", req.Width, req.Height, name)
	}
	return fmt.Sprintf("upscaled_%dx_%s", req.Factor, name)
}

// writeOutput encodes img into outputDir by the extension of name. Formats
// without an encoder are written as PNG and the name is adjusted to match.
func writeOutput(img image.Image, name string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("output dir: %w", err)
	}
	want, _ := imaging.FormatFromName(name)
	if want != imaging.FormatJPEG && want != imaging.FormatBMP && want != imaging.FormatPNG {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
		want = imaging.FormatPNG
	}
	tmp, err := os.CreateTemp(outputDir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := imaging.Encode(tmp, img, want); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(outputDir, name)); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return name, nil
}

// sanitizeFilename keeps the base name, maps spaces to '_' and drops
// anything else outside [A-Za-z0-9._-]. Leading dots and underscores are
// stripped.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

func allowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return allowedExtensions[ext]
}
