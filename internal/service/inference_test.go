package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflowai/medflow-api/internal/domain"
	"github.com/medflowai/medflow-api/pkg/external"
)

// fakePredictor records invocations and replays a canned response
type fakePredictor struct {
	calls    int
	payload  map[string]any
	response *external.PredictResponse
	err      error
}

func (f *fakePredictor) Predict(ctx context.Context, payload map[string]any) (*external.PredictResponse, error) {
	f.calls++
	f.payload = payload
	return f.response, f.err
}

func validForm() map[string]any {
	return map[string]any{
		"gender":           "Male",
		"age":              "30",
		"occupation":       "Software Engineer",
		"sleepDuration":    7.5,
		"qualitySleep":     "8",
		"physicalActivity": 60.0,
		"stressLevel":      "4",
		"BMI":              "Normal",
		"systolic":         120.0,
		"diastolic":        "80",
		"heartRate":        70.0,
		"dailySteps":       "8000",
	}
}

func newTestInferenceService(fake *fakePredictor) *InferenceService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewInferenceService(fake, logger)
}

func TestInferenceService_Forward(t *testing.T) {
	fake := &fakePredictor{
		response: &external.PredictResponse{Success: true, Prediction: "No Disorder"},
	}
	svc := newTestInferenceService(fake)

	result, err := svc.Forward(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "No Disorder", result.Prediction)
	assert.Equal(t, 1, fake.calls)

	// Numeric fields coerced, categorical untouched
	assert.Equal(t, 30.0, fake.payload["age"])
	assert.Equal(t, 8.0, fake.payload["qualitySleep"])
	assert.Equal(t, 8000.0, fake.payload["dailySteps"])
	assert.Equal(t, "Male", fake.payload["gender"])
	assert.Equal(t, "Normal", fake.payload["BMI"])
}

func TestInferenceService_Forward_MissingFieldsNamed(t *testing.T) {
	fake := &fakePredictor{}
	svc := newTestInferenceService(fake)

	form := validForm()
	delete(form, "age")
	form["heartRate"] = ""
	form["dailySteps"] = nil

	_, err := svc.Forward(context.Background(), form)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"age", "heartRate", "dailySteps"}, verr.Fields)
	assert.Equal(t, 0, fake.calls, "no outbound call on validation failure")
}

func TestInferenceService_Forward_AllFieldsMissing(t *testing.T) {
	fake := &fakePredictor{}
	svc := newTestInferenceService(fake)

	_, err := svc.Forward(context.Background(), map[string]any{})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 12)
	assert.Equal(t, 0, fake.calls)
}

func TestInferenceService_Forward_UpstreamReportedFailure(t *testing.T) {
	fake := &fakePredictor{
		response: &external.PredictResponse{
			Success: false,
			Raw:     json.RawMessage(`{"success":false,"detail":"model not loaded"}`),
		},
	}
	svc := newTestInferenceService(fake)

	_, err := svc.Forward(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, IsUpstreamError(err))

	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	details, ok := uerr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "model not loaded", details["detail"])
}

func TestInferenceService_Forward_TransportFailure(t *testing.T) {
	fake := &fakePredictor{err: errors.New("connection refused")}
	svc := newTestInferenceService(fake)

	_, err := svc.Forward(context.Background(), validForm())
	require.Error(t, err)
	assert.False(t, IsUpstreamError(err), "transport failures are not upstream-reported failures")
	assert.Contains(t, err.Error(), "connection refused")
}
