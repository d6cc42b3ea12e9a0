// Package domain contains the core entities and error taxonomy of the
// MedFlow prediction API: prediction records persisted per user, the
// feature payloads forwarded to the external inference service, and
// the sentinel errors the HTTP layer maps to status codes.
package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ModelType tags a prediction record with the model that produced it.
// The storage layer treats it as an opaque string; these constants are
// the models the frontend currently exposes.
type ModelType = string

const (
	ModelSleep  ModelType = "sleep"
	ModelTumor  ModelType = "tumor"
	ModelCancer ModelType = "cancer"
)

// GSISeparator joins model type and creation time in the secondary
// index sort key. It must sort below any digit so that begins_with on
// "modelType#" never matches a longer model name sharing the prefix.
const GSISeparator = "#"

// Sentinel errors. Handlers translate these to HTTP status codes;
// everything else is an internal fault.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("duplicate prediction id")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUpstream           = errors.New("upstream service error")
)

// Prediction is a write-once record of a model invocation for a user.
// userId is the partition key and predictionId the sort key; the pair
// is unique and records are never updated or deleted after creation.
// Gsi1pk/Gsi1sk drive the modelType+createdAt secondary index.
type Prediction struct {
	UserID       string         `json:"userId" dynamodbav:"userId"`
	PredictionID string         `json:"predictionId" dynamodbav:"predictionId"`
	ModelType    ModelType      `json:"modelType" dynamodbav:"modelType"`
	CreatedAt    int64          `json:"createdAt" dynamodbav:"createdAt"`
	Gsi1pk       string         `json:"-" dynamodbav:"gsi1pk"`
	Gsi1sk       string         `json:"-" dynamodbav:"gsi1sk"`
	Input        map[string]any `json:"input" dynamodbav:"input"`
	Output       any            `json:"output" dynamodbav:"output"`
}

// GSISortKey derives the secondary-index sort key for a model type and
// creation timestamp. The timestamp is zero-padded so lexicographic
// order on the string matches numeric order on createdAt.
func GSISortKey(modelType ModelType, createdAt int64) string {
	return modelType + GSISeparator + fmt.Sprintf("%019d", createdAt)
}

// GSIPrefix is the begins_with prefix selecting all records of one
// model type within a user's partition.
func GSIPrefix(modelType ModelType) string {
	return modelType + GSISeparator
}

// PlaceholderOutput is stored when a record is created without an
// already-computed inference result. The creation path does not call
// the inference service itself.
const PlaceholderOutput = "stubbed result string"

// SleepFeatures is the flat feature form the sleep-disorder model
// expects. Field names match the inference service's contract exactly;
// numeric fields arrive as strings or numbers from the form and are
// coerced before forwarding.
type SleepFeatures struct {
	Gender           any `json:"gender"`
	Age              any `json:"age"`
	Occupation       any `json:"occupation"`
	SleepDuration    any `json:"sleepDuration"`
	QualitySleep     any `json:"qualitySleep"`
	PhysicalActivity any `json:"physicalActivity"`
	StressLevel      any `json:"stressLevel"`
	BMI              any `json:"BMI"`
	Systolic         any `json:"systolic"`
	Diastolic        any `json:"diastolic"`
	HeartRate        any `json:"heartRate"`
	DailySteps       any `json:"dailySteps"`
}

// ToNumber coerces a form value to float64. JSON numbers decode as
// float64 already; string values from form state are parsed.
func ToNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %q as number: %w", n, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to number", v)
	}
}
