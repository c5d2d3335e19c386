package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"upscaled/internal/imaging"
	"upscaled/internal/manager"
	"upscaled/internal/upscale"
	"upscaled/pkg/types"
)

type mockService struct {
	status  types.StatusResponse
	ready   bool
	scales  []int
	err     error
	lastReq upscale.Request
	calls   int
}

func (m *mockService) SupportedFactors() []int      { return []int{2, 3, 4, 5, 10} }
func (m *mockService) NativeScales() []int          { return m.scales }
func (m *mockService) MaxTargetDimension() int      { return 20000 }
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

// Upscale returns a solid image of the requested size.
func (m *mockService) Upscale(ctx context.Context, req upscale.Request, img image.Image) (upscale.Result, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return upscale.Result{}, m.err
	}
	w, h := imaging.Size(img)
	fw, fh := w*req.Factor, h*req.Factor
	if req.Mode == upscale.ModeResolution {
		fw, fh = req.Width, req.Height
	}
	return upscale.Result{
		Image:          image.NewNRGBA(image.Rect(0, 0, fw, fh)),
		OriginalWidth:  w,
		OriginalHeight: h,
		FinalWidth:     fw,
		FinalHeight:    fh,
		Trace:          upscale.Trace{Mode: req.Mode, NativeScale: 4},
	}, nil
}

// useTempDirs points uploads and outputs at per-test directories.
func useTempDirs(t *testing.T) (string, string) {
	t.Helper()
	oldU, oldO := uploadDir, outputDir
	t.Cleanup(func() { uploadDir, outputDir = oldU, oldO })
	u, o := filepath.Join(t.TempDir(), "uploads"), filepath.Join(t.TempDir(), "outputs")
	SetStorageDirs(u, o)
	return u, o
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 255})
	var buf bytes.Buffer
	if _, err := imaging.Encode(&buf, img, imaging.FormatPNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart POST /api/upscale.
func uploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("field: %v", err)
		}
	}
	if filename != "" || data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upscale", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeUpscale(t *testing.T, w *httptest.ResponseRecorder) types.UpscaleResponse {
	t.Helper()
	var resp types.UpscaleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestScaleFactorsHandler(t *testing.T) {
	svc := &mockService{scales: []int{2, 4}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scale-factors", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ScaleFactorsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.ScaleFactors) != 5 || len(body.NativeScales) != 2 || body.MaxTargetDimension != 20000 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{LoadsTotal: 3, NativeScales: []int{4}}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.LoadsTotal != 3 {
		t.Fatalf("LoadsTotal=%d", body.LoadsTotal)
	}
}

func TestHealthAndReady(t *testing.T) {
	h := NewMux(&mockService{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz=%d", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz without scales=%d want 503", w.Code)
	}
	w = httptest.NewRecorder()
	NewMux(&mockService{scales: []int{4}}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz with scales=%d want 200", w.Code)
	}
}

func TestUpscale_FactorWritesOutput(t *testing.T) {
	up, out := useTempDirs(t)
	svc := &mockService{scales: []int{4}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, uploadRequest(t, "photo.png", pngBytes(t, 10, 6), map[string]string{"mode": "factor", "scale_factor": "3"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	resp := decodeUpscale(t, w)
	if !resp.Success || resp.OutputFile != "upscaled_3x_photo.png" || resp.OriginalSize != "10x6" || resp.UpscaledSize != "30x18" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if svc.lastReq != upscale.FactorRequest(3) {
		t.Fatalf("request=%+v", svc.lastReq)
	}
	f, err := os.Open(filepath.Join(out, resp.OutputFile))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()
	img, format, err := imaging.Decode(f)
	if err != nil || format != imaging.FormatPNG {
		t.Fatalf("decode output: %v %s", err, format)
	}
	if ww, hh := imaging.Size(img); ww != 30 || hh != 18 {
		t.Fatalf("output %dx%d", ww, hh)
	}
	entries, _ := os.ReadDir(up)
	if len(entries) != 0 {
		t.Fatalf("staged uploads not removed: %d left", len(entries))
	}
}

func TestUpscale_DefaultsToFactorTwo(t *testing.T) {
	useTempDirs(t)
	svc := &mockService{scales: []int{4}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, uploadRequest(t, "a.png", pngBytes(t, 4, 4), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastReq != upscale.FactorRequest(2) {
		t.Fatalf("request=%+v", svc.lastReq)
	}
}

func TestUpscale_ResolutionNaming(t *testing.T) {
	useTempDirs(t)
	svc := &mockService{scales: []int{4}}
	w := httptest.NewRecorder()
	fields := map[string]string{"mode": "resolution", "target_width": "1920", "target_height": "1080"}
	NewMux(svc).ServeHTTP(w, uploadRequest(t, "shot.png", pngBytes(t, 8, 8), fields))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	resp := decodeUpscale(t, w)
	if resp.OutputFile != "upscaled_1920x1080_shot.png" || resp.UpscaledSize != "1920x1080" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUpscale_WebPOutputWrittenAsPNG(t *testing.T) {
	_, out := useTempDirs(t)
	svc := &mockService{scales: []int{4}}
	w := httptest.NewRecorder()
	// content is PNG; only the name says webp
	NewMux(svc).ServeHTTP(w, uploadRequest(t, "pic.webp", pngBytes(t, 4, 4), map[string]string{"scale_factor": "2"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	resp := decodeUpscale(t, w)
	if resp.OutputFile != "upscaled_2x_pic.png" {
		t.Fatalf("output=%s", resp.OutputFile)
	}
	if _, err := os.Stat(filepath.Join(out, resp.OutputFile)); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestUpscale_ValidationErrors(t *testing.T) {
	useTempDirs(t)
	cases := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{"no file", func() *http.Request { return uploadRequest(t, "", nil, map[string]string{"mode": "factor"}) }, http.StatusBadRequest},
		{"bad extension", func() *http.Request { return uploadRequest(t, "x.gif", pngBytes(t, 2, 2), nil) }, http.StatusBadRequest},
		{"bad mode", func() *http.Request {
			return uploadRequest(t, "x.png", pngBytes(t, 2, 2), map[string]string{"mode": "zoom"})
		}, http.StatusBadRequest},
		{"bad factor", func() *http.Request {
			return uploadRequest(t, "x.png", pngBytes(t, 2, 2), map[string]string{"scale_factor": "two"})
		}, http.StatusBadRequest},
		{"missing height", func() *http.Request {
			return uploadRequest(t, "x.png", pngBytes(t, 2, 2), map[string]string{"mode": "resolution", "target_width": "10"})
		}, http.StatusBadRequest},
		{"corrupt image", func() *http.Request { return uploadRequest(t, "x.png", []byte("not a png"), nil) }, http.StatusBadRequest},
		{"not multipart", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/upscale", strings.NewReader(`{"file":"x"}`))
		}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{scales: []int{4}}
			w := httptest.NewRecorder()
			NewMux(svc).ServeHTTP(w, tc.req())
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			if svc.calls != 0 {
				t.Fatalf("service must not be called")
			}
			var e types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Code != tc.status || e.Error == "" {
				t.Fatalf("bad error body %q: %v", w.Body.String(), err)
			}
		})
	}
}

func TestUpscale_TooLarge(t *testing.T) {
	useTempDirs(t)
	SetMaxBodyBytes(1024)
	defer SetMaxBodyBytes(0)
	w := httptest.NewRecorder()
	NewMux(&mockService{scales: []int{4}}).ServeHTTP(w, uploadRequest(t, "big.png", bytes.Repeat([]byte{1}, 4096), nil))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d want 413", w.Code)
	}
}

func TestUpscale_ErrorMapping(t *testing.T) {
	useTempDirs(t)
	cases := []struct {
		err    error
		status int
	}{
		{&imaging.InvalidDimensionsError{Width: 20001, Height: 10, Reason: "too large"}, http.StatusBadRequest},
		{&imaging.InvalidImageError{Reason: "empty"}, http.StatusBadRequest},
		{&manager.EngineInitError{Scale: 4, Err: os.ErrNotExist}, http.StatusServiceUnavailable},
		{manager.ErrDependencyUnavailable("no runtime"), http.StatusServiceUnavailable},
		{&manager.InferenceError{Scale: 4, Err: os.ErrClosed}, http.StatusInternalServerError},
		{mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		NewMux(&mockService{scales: []int{4}, err: tc.err}).ServeHTTP(w, uploadRequest(t, "a.png", pngBytes(t, 2, 2), nil))
		if w.Code != tc.status {
			t.Fatalf("%v: status=%d want %d", tc.err, w.Code, tc.status)
		}
	}
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func TestDownload(t *testing.T) {
	_, out := useTempDirs(t)
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "upscaled_2x_a.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := NewMux(&mockService{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/download/upscaled_2x_a.png", nil))
	if w.Code != http.StatusOK || w.Body.String() != "png-bytes" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("content-disposition=%q", cd)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/download/missing.png", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing file status=%d want 404", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/download/..%2Fsecret", nil))
	if w.Code != http.StatusBadRequest && w.Code != http.StatusNotFound {
		t.Fatalf("traversal status=%d", w.Code)
	}
}
