package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrServer wraps error responses from the model server.
var ErrServer = errors.New("forecast: server error")

const wireDateLayout = "2006-01-02"

// HTTPOption configures an HTTPPredictor.
type HTTPOption func(*HTTPPredictor)

// WithTimeout sets the per-request timeout. Default: 60s.
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPPredictor) { p.timeout = d }
}

// WithHTTPClient replaces the underlying client; the timeout option is
// ignored when a client is supplied.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPPredictor) { p.client = c }
}

// WithUseLatest asks the server to pull fresh market data when no CSV is
// attached. Default: true.
func WithUseLatest(v bool) HTTPOption {
	return func(p *HTTPPredictor) { p.useLatest = v }
}

// HTTPPredictor calls the model server's POST /predict endpoint with a
// multipart form (stock, days, model, useLatest, optional file).
type HTTPPredictor struct {
	baseURL   string
	timeout   time.Duration
	useLatest bool
	client    *http.Client
}

// NewHTTPPredictor returns a predictor for the server at baseURL.
func NewHTTPPredictor(baseURL string, opts ...HTTPOption) *HTTPPredictor {
	p := &HTTPPredictor{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   60 * time.Second,
		useLatest: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: p.timeout}
	}
	return p
}

// wireResult is the server's JSON shape. Metric keys are upper-case on the
// reference server; lower-case is accepted too.
type wireResult struct {
	Dates           []string           `json:"dates"`
	ActualPrices    []float64          `json:"actualPrices"`
	PredictedPrices []float64          `json:"predictedPrices"`
	Metrics         map[string]float64 `json:"metrics"`
	Error           string             `json:"error"`
}

// Predict uploads the request and decodes the forecast.
func (p *HTTPPredictor) Predict(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := p.encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("forecast: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("forecast: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("forecast: read response: %w", err)
	}

	var wire wireResult
	decodeErr := json.Unmarshal(raw, &wire)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && wire.Error != "" {
			msg = wire.Error
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("forecast: decode response: %w", decodeErr)
	}

	return wire.toResult()
}

// encodeForm builds the multipart body. The CSV, if any, is copied
// byte-for-byte without interpretation.
func (p *HTTPPredictor) encodeForm(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"stock", req.Symbol},
		{"days", strconv.Itoa(req.HorizonDays)},
		{"model", string(req.Model)},
		{"useLatest", strconv.FormatBool(p.useLatest && req.File == "")},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("forecast: write field %s: %w", f[0], err)
		}
	}

	if req.File != "" {
		f, err := os.Open(req.File)
		if err != nil {
			return nil, "", fmt.Errorf("forecast: open upload: %w", err)
		}
		defer f.Close()

		part, err := w.CreateFormFile("file", filepath.Base(req.File))
		if err != nil {
			return nil, "", fmt.Errorf("forecast: create form file: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("forecast: copy upload: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("forecast: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (w wireResult) toResult() (*Result, error) {
	res := &Result{
		Dates:           make([]time.Time, len(w.Dates)),
		ActualPrices:    w.ActualPrices,
		PredictedPrices: w.PredictedPrices,
	}
	for i, s := range w.Dates {
		d, err := time.Parse(wireDateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("forecast: parse date %q: %w", s, err)
		}
		res.Dates[i] = d
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	computed := ComputeMetrics(res.ActualPrices, res.PredictedPrices)
	res.Metrics = Metrics{
		RMSE:     metric(w.Metrics, "RMSE", computed.RMSE),
		MAE:      metric(w.Metrics, "MAE", computed.MAE),
		Accuracy: metric(w.Metrics, "ACCURACY", computed.Accuracy),
	}
	return res, nil
}

// metric looks name up case-insensitively, falling back to def.
func metric(m map[string]float64, name string, def float64) float64 {
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return def
}
