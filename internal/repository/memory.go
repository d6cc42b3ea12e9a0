package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medflowai/medflow-api/internal/domain"
)

// MemoryStore is an in-process Store with the same conflict and
// ordering semantics as the DynamoDB implementation. It backs tests
// and local development without AWS credentials.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]map[string]*domain.Prediction // userID -> predictionID -> record
	newID     func() string
	nowMillis func() int64
}

// NewMemoryStore creates an empty in-memory prediction store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]map[string]*domain.Prediction),
		newID:     uuid.NewString,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Create inserts a new record, failing with domain.ErrConflict when
// the generated key pair already exists.
func (s *MemoryStore) Create(ctx context.Context, userID string, modelType domain.ModelType, input map[string]any, output any) (*domain.Prediction, error) {
	if err := validateCreate(userID, modelType, input); err != nil {
		return nil, err
	}

	if output == nil {
		output = domain.PlaceholderOutput
	}

	createdAt := s.nowMillis()
	record := &domain.Prediction{
		UserID:       userID,
		PredictionID: s.newID(),
		ModelType:    modelType,
		CreatedAt:    createdAt,
		Gsi1pk:       userID,
		Gsi1sk:       domain.GSISortKey(modelType, createdAt),
		Input:        input,
		Output:       output,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.records[userID]
	if !ok {
		byID = make(map[string]*domain.Prediction)
		s.records[userID] = byID
	}
	if _, exists := byID[record.PredictionID]; exists {
		return nil, fmt.Errorf("creating prediction: %w", domain.ErrConflict)
	}
	byID[record.PredictionID] = record

	return record, nil
}

// ListByUser returns up to limit records newest first, optionally
// filtered to one model type via the same sort-key prefix the
// secondary index uses.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, modelType domain.ModelType, limit int) ([]*domain.Prediction, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Prediction, 0)
	for _, record := range s.records[userID] {
		if modelType != "" && !strings.HasPrefix(record.Gsi1sk, domain.GSIPrefix(modelType)) {
			continue
		}
		matched = append(matched, record)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt != matched[j].CreatedAt {
			return matched[i].CreatedAt > matched[j].CreatedAt
		}
		return matched[i].PredictionID > matched[j].PredictionID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Get performs a point lookup by the exact primary key pair
func (s *MemoryStore) Get(ctx context.Context, userID, predictionID string) (*domain.Prediction, error) {
	var missing []string
	if userID == "" {
		missing = append(missing, "userId")
	}
	if predictionID == "" {
		missing = append(missing, "predictionId")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(missing...)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID][predictionID]
	if !ok {
		return nil, fmt.Errorf("prediction %s/%s: %w", userID, predictionID, domain.ErrNotFound)
	}

	return record, nil
}
