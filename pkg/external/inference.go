// Package external contains clients for upstream services the API
// calls but does not implement.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// InferenceClient calls the external ML inference service. A single
// synchronous request per call, bounded by the client timeout; no
// retries — failures are the caller's to surface.
type InferenceClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// InferenceConfig configures the inference client
type InferenceConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per second
}

// PredictResponse is the inference service's response envelope. The
// service sets Success on its own validated predictions; anything else
// is treated as an upstream error. Raw keeps the undecoded body for
// diagnostics.
type PredictResponse struct {
	Success    bool            `json:"success"`
	Prediction any             `json:"prediction"`
	Raw        json.RawMessage `json:"-"`
}

// NewInferenceClient creates a new inference service client
func NewInferenceClient(config InferenceConfig) *InferenceClient {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	return &InferenceClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Predict posts the feature payload to the service's predict endpoint
// and decodes the response envelope. A non-2xx status or an
// undecodable body is returned as an error with the body preserved.
func (c *InferenceClient) Predict(ctx context.Context, payload map[string]any) (*PredictResponse, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling inference payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling inference service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading inference response: %w", err)
	}

	result := &PredictResponse{Raw: raw}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("decoding inference response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	return result, nil
}
