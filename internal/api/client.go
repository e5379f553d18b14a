package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PredictRequest carries the eight mix fields exactly as typed by the user,
// plus the selected model identifier. Values stay raw strings; the backend
// owns numeric interpretation.
type PredictRequest struct {
	Cement           string `json:"cement"`
	Slag             string `json:"slag"`
	FlyAsh           string `json:"flyash"`
	Water            string `json:"water"`
	Superplasticizer string `json:"superplasticizer"`
	CoarseAgg        string `json:"coarseagg"`
	FineAgg          string `json:"fineagg"`
	Age              string `json:"age"`
	Model            string `json:"model"`
}

// Metrics is the accuracy report for one model on the backend's test set.
type Metrics struct {
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	R2          float64 `json:"r2"`
	Correlation float64 `json:"correlation"`
	Description string  `json:"description"`
}

type predictResponse struct {
	PredictedStrength *float64 `json:"predicted_strength"`
	Error             string   `json:"error"`
}

type metricsResponse struct {
	Metrics
	Error string `json:"error"`
}

// ServerError reports a non-success HTTP status. The message shown to the
// user is the response body when the backend supplied one.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// APIError reports a 2xx response whose payload carries an error field.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the prediction backend. Timeouts are the caller's
// responsibility via ctx; the backend may cold-start, so no transport-level
// deadline is imposed here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request payload: %w", err)
		}
		body = bytes.NewReader(blob)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		blob, _ := io.ReadAll(resp.Body)
		return &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(blob))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Predict submits the mix to POST /predict and returns the raw predicted
// strength in MPa. A 2xx payload carrying an error field settles as APIError.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (float64, error) {
	start := time.Now()
	var response predictResponse
	if err := c.doJSON(ctx, http.MethodPost, "/predict", nil, req, &response); err != nil {
		c.logger.Warn("predict failed", "model", req.Model, "elapsed", time.Since(start), "err", err)
		return 0, err
	}
	if strings.TrimSpace(response.Error) != "" {
		c.logger.Warn("predict rejected", "model", req.Model, "elapsed", time.Since(start), "reason", response.Error)
		return 0, &APIError{Message: response.Error}
	}
	if response.PredictedStrength == nil {
		return 0, fmt.Errorf("predict response missing predicted_strength")
	}
	c.logger.Info("predict settled", "model", req.Model, "elapsed", time.Since(start), "strength", *response.PredictedStrength)
	return *response.PredictedStrength, nil
}

// ModelMetrics fetches GET /model-metrics?model=... and returns the accuracy
// report, with the same error taxonomy as Predict.
func (c *Client) ModelMetrics(ctx context.Context, model string) (*Metrics, error) {
	start := time.Now()
	query := url.Values{}
	query.Set("model", model)

	var response metricsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/model-metrics", query, nil, &response); err != nil {
		c.logger.Warn("model-metrics failed", "model", model, "elapsed", time.Since(start), "err", err)
		return nil, err
	}
	if strings.TrimSpace(response.Error) != "" {
		c.logger.Warn("model-metrics rejected", "model", model, "elapsed", time.Since(start), "reason", response.Error)
		return nil, &APIError{Message: response.Error}
	}
	c.logger.Info("model-metrics settled", "model", model, "elapsed", time.Since(start))
	metrics := response.Metrics
	return &metrics, nil
}

// Health probes the backend root endpoint. Used once at startup; a failure
// is informational only since the service may still be cold-starting.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}
	return nil
}
