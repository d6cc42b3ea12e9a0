// Package cache provides a read-through cache over the prediction
// store. Prediction records are immutable after creation, so cached
// entries can never go stale; only point lookups are cached because
// list results change as new records arrive.
package cache

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
	"github.com/medflowai/medflow-api/internal/repository"
)

// PredictionCache layers an in-memory LRU tier and an optional redis
// tier in front of a repository.Store. It implements repository.Store.
type PredictionCache struct {
	store  repository.Store
	memory *lru.Cache[string, *domain.Prediction]
	redis  *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// Config configures the prediction cache. RedisClient may be nil for a
// memory-only cache.
type Config struct {
	MaxItems    int
	TTL         time.Duration
	RedisClient *redis.Client
}

// NewPredictionCache wraps store with the configured cache tiers
func NewPredictionCache(store repository.Store, cfg Config, logger *logrus.Logger) (*PredictionCache, error) {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	memory, err := lru.New[string, *domain.Prediction](cfg.MaxItems)
	if err != nil {
		return nil, err
	}

	return &PredictionCache{
		store:  store,
		memory: memory,
		redis:  cfg.RedisClient,
		ttl:    cfg.TTL,
		log:    logger,
	}, nil
}

func cacheKey(userID, predictionID string) string {
	return "prediction:" + userID + ":" + predictionID
}

// Create delegates to the store and primes both tiers on success
func (c *PredictionCache) Create(ctx context.Context, userID string, modelType domain.ModelType, input map[string]any, output any) (*domain.Prediction, error) {
	record, err := c.store.Create(ctx, userID, modelType, input, output)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, record)
	return record, nil
}

// ListByUser always hits the store: a cached list would miss records
// created since it was cached.
func (c *PredictionCache) ListByUser(ctx context.Context, userID string, modelType domain.ModelType, limit int) ([]*domain.Prediction, error) {
	return c.store.ListByUser(ctx, userID, modelType, limit)
}

// Get checks the memory tier, then redis, then the store,
// back-filling on every miss.
func (c *PredictionCache) Get(ctx context.Context, userID, predictionID string) (*domain.Prediction, error) {
	key := cacheKey(userID, predictionID)

	if record, ok := c.memory.Get(key); ok {
		return record, nil
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			record := &domain.Prediction{}
			if err := json.Unmarshal(data, record); err == nil {
				c.memory.Add(key, record)
				return record, nil
			}
		} else if err != redis.Nil {
			// Redis faults degrade to the store, never to the caller
			c.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Redis cache read failed")
		}
	}

	record, err := c.store.Get(ctx, userID, predictionID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, record)
	return record, nil
}

func (c *PredictionCache) fill(ctx context.Context, record *domain.Prediction) {
	key := cacheKey(record.UserID, record.PredictionID)
	c.memory.Add(key, record)

	if c.redis != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Redis cache write failed")
		}
	}
}
