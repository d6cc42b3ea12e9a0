package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
	"github.com/medflowai/medflow-api/internal/repository"
)

// PredictionService fronts the prediction store for the HTTP layer.
// Creation and inference are deliberately separate paths: Create
// persists whatever output the caller already has (or a placeholder),
// it does not invoke the inference service itself. Callers holding a
// computed result pass it through the output argument.
type PredictionService struct {
	store repository.Store
	log   *logrus.Logger
}

// NewPredictionService creates a new prediction service
func NewPredictionService(store repository.Store, logger *logrus.Logger) *PredictionService {
	return &PredictionService{
		store: store,
		log:   logger,
	}
}

// Create persists a new prediction record
func (s *PredictionService) Create(ctx context.Context, userID string, modelType domain.ModelType, input map[string]any, output any) (*domain.Prediction, error) {
	return s.store.Create(ctx, userID, modelType, input, output)
}

// List returns a user's records newest first, optionally filtered by
// model type
func (s *PredictionService) List(ctx context.Context, userID string, modelType domain.ModelType, limit int) ([]*domain.Prediction, error) {
	return s.store.ListByUser(ctx, userID, modelType, limit)
}

// Get returns a single record by its key pair
func (s *PredictionService) Get(ctx context.Context, userID, predictionID string) (*domain.Prediction, error) {
	return s.store.Get(ctx, userID, predictionID)
}
