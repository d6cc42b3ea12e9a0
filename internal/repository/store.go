// Package repository persists prediction records. Records are created
// once behind a duplicate-id guard and read back by user, by user and
// model type, or by exact key pair; they are never updated or deleted.
package repository

import (
	"context"

	"github.com/medflowai/medflow-api/internal/domain"
)

// DefaultListLimit caps list queries when the caller gives no limit.
const DefaultListLimit = 20

// Store is the prediction persistence contract. Implementations must
// reject a Create whose (userId, predictionId) pair already exists
// with domain.ErrConflict and must never overwrite the first record.
type Store interface {
	// Create persists a new record. output may be nil, in which case
	// the stored output is domain.PlaceholderOutput.
	Create(ctx context.Context, userID string, modelType domain.ModelType, input map[string]any, output any) (*domain.Prediction, error)

	// ListByUser returns up to limit records newest first. An empty
	// modelType lists across all models; a non-positive limit means
	// DefaultListLimit. No matches yields an empty slice, not an error.
	ListByUser(ctx context.Context, userID string, modelType domain.ModelType, limit int) ([]*domain.Prediction, error)

	// Get returns the record for the exact key pair, or
	// domain.ErrNotFound.
	Get(ctx context.Context, userID, predictionID string) (*domain.Prediction, error)
}

// validateCreate checks required creation arguments before any
// storage access, collecting every missing field name.
func validateCreate(userID string, modelType domain.ModelType, input map[string]any) error {
	var missing []string
	if userID == "" {
		missing = append(missing, "userId")
	}
	if modelType == "" {
		missing = append(missing, "modelType")
	}
	if len(input) == 0 {
		missing = append(missing, "input")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing...)
	}
	return nil
}
