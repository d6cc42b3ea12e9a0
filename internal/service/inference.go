// Package service holds the application services between the HTTP
// handlers and the storage/upstream layers.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
	"github.com/medflowai/medflow-api/pkg/external"
)

// requiredFeatures are the fields the sleep-disorder form must carry.
// Order matters: missing fields are reported in this order.
var requiredFeatures = []string{
	"gender",
	"age",
	"occupation",
	"sleepDuration",
	"qualitySleep",
	"physicalActivity",
	"stressLevel",
	"BMI",
	"systolic",
	"diastolic",
	"heartRate",
	"dailySteps",
}

// numericFeatures are coerced to numbers before forwarding; the rest
// pass through as-is (categorical strings).
var numericFeatures = map[string]bool{
	"age":              true,
	"sleepDuration":    true,
	"qualitySleep":     true,
	"physicalActivity": true,
	"stressLevel":      true,
	"systolic":         true,
	"diastolic":        true,
	"heartRate":        true,
	"dailySteps":       true,
}

// Predictor is the outbound inference call. *external.InferenceClient
// satisfies it; tests substitute a recording fake.
type Predictor interface {
	Predict(ctx context.Context, payload map[string]any) (*external.PredictResponse, error)
}

// InferenceResult is the normalized successful outcome
type InferenceResult struct {
	Prediction any `json:"prediction"`
}

// InferenceService validates a submitted feature form, forwards it to
// the external inference service and normalizes the outcome. It never
// retries; every upstream failure is surfaced to the caller.
type InferenceService struct {
	client Predictor
	log    *logrus.Logger
}

// NewInferenceService creates a new inference forwarding service
func NewInferenceService(client Predictor, logger *logrus.Logger) *InferenceService {
	return &InferenceService{
		client: client,
		log:    logger,
	}
}

// Forward validates the form, coerces numeric fields and relays the
// payload upstream. Validation failures carry the exact missing field
// names and happen before any network activity. An upstream body
// without its success indicator becomes a domain.UpstreamError with
// the diagnostic payload attached; transport failures are returned
// as plain errors.
func (s *InferenceService) Forward(ctx context.Context, form map[string]any) (*InferenceResult, error) {
	var missing []string
	for _, field := range requiredFeatures {
		v, ok := form[field]
		if !ok || v == nil || v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(missing...)
	}

	// Shape the payload exactly as the inference service expects:
	// numeric fields as numbers, categorical fields untouched. The
	// upstream's own validation is authoritative, so an uncoercible
	// value is passed through rather than rejected here.
	payload := make(map[string]any, len(requiredFeatures))
	for _, field := range requiredFeatures {
		v := form[field]
		if numericFeatures[field] {
			if n, err := domain.ToNumber(v); err == nil {
				v = n
			}
		}
		payload[field] = v
	}

	resp, err := s.client.Predict(ctx, payload)
	if err != nil {
		s.log.WithFields(logrus.Fields{"error": err}).Error("Inference call failed")
		if resp != nil && len(resp.Raw) > 0 {
			return nil, fmt.Errorf("forwarding to inference service (%s): %w", string(resp.Raw), err)
		}
		return nil, fmt.Errorf("forwarding to inference service: %w", err)
	}

	if !resp.Success {
		s.log.WithFields(logrus.Fields{"body": string(resp.Raw)}).Warn("Inference service reported failure")
		return nil, &domain.UpstreamError{
			Service: "inference",
			Details: rawDetails(resp.Raw),
		}
	}

	return &InferenceResult{Prediction: resp.Prediction}, nil
}

// rawDetails decodes the upstream body for relaying; an undecodable
// body is relayed as a string.
func rawDetails(raw json.RawMessage) any {
	var details any
	if err := json.Unmarshal(raw, &details); err != nil {
		return string(raw)
	}
	return details
}

// IsUpstreamError reports whether err is a relayed upstream failure
func IsUpstreamError(err error) bool {
	return errors.Is(err, domain.ErrUpstream)
}
