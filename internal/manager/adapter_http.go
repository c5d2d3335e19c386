package manager

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"upscaled/internal/imaging"
)

// httpAdapter implements InferenceAdapter by talking to a running inference
// server. Protocol:
//
//	GET  {base}/healthz                               -> 2xx when ready
//	POST {base}/enhance?scale=&model=&tile=&tile_pad=&half=&device=
//	     body: image/png                              -> image/png
type httpAdapter struct {
	baseURL        string
	connectTimeout time.Duration
	httpClient     *http.Client
}

// NewHTTPAdapter constructs a server-backed adapter.
func NewHTTPAdapter(baseURL string, connectTimeout time.Duration) InferenceAdapter {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: a pass may legitimately take minutes; deadlines, if any,
	// belong to the boundary layer.
	return &httpAdapter{
		baseURL:        strings.TrimRight(baseURL, "/"),
		connectTimeout: connectTimeout,
		httpClient:     &http.Client{Transport: tr, Timeout: 0},
	}
}

// Start probes the server once; the model itself is selected per request.
func (a *httpAdapter) Start(spec EngineSpec) (Engine, error) {
	if a.baseURL == "" {
		return nil, ErrDependencyUnavailable("inference server URL not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.connectTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/healthz", nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("inference server unreachable: %v", err))
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrDependencyUnavailable("inference server not ready: " + resp.Status)
	}
	return &httpEngine{a: a, spec: spec}, nil
}

type httpEngine struct {
	a    *httpAdapter
	spec EngineSpec
}

func (e *httpEngine) Enhance(ctx context.Context, img image.Image, outscale int) (image.Image, error) {
	var body bytes.Buffer
	if _, err := imaging.Encode(&body, img, imaging.FormatPNG); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	q := url.Values{}
	q.Set("scale", strconv.Itoa(outscale))
	q.Set("model", strings.TrimSuffix(filepath.Base(e.spec.WeightsPath), filepath.Ext(e.spec.WeightsPath)))
	q.Set("tile", strconv.Itoa(e.spec.Tile))
	q.Set("tile_pad", strconv.Itoa(e.spec.TilePad))
	q.Set("half", strconv.FormatBool(e.spec.Half))
	q.Set("device", string(e.spec.Device))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.a.baseURL+"/enhance?"+q.Encode(), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	resp, err := e.a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("inference server http error: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	out, _, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("inference server response: %w", err)
	}
	return out, nil
}

func (e *httpEngine) Close() error {
	e.a.httpClient.CloseIdleConnections()
	return nil
}
