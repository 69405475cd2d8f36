package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"retail-scraper-service/internal/models"
)

// DefaultImportRunTTL is how long import run records are kept
const DefaultImportRunTTL = 24 * time.Hour

// ImportRunStore keeps the outcome of import runs for later lookup.
type ImportRunStore interface {
	Save(ctx context.Context, run *models.ImportRun) error
	Get(ctx context.Context, id string) (*models.ImportRun, error)
}

// RedisImportRunStore stores import runs as JSON under product_import:run:<id>.
type RedisImportRunStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisImportRunStore(client *redis.Client, ttl time.Duration) *RedisImportRunStore {
	if ttl <= 0 {
		ttl = DefaultImportRunTTL
	}
	return &RedisImportRunStore{redis: client, ttl: ttl}
}

func importRunKey(id string) string {
	return fmt.Sprintf("product_import:run:%s", id)
}

func (s *RedisImportRunStore) Save(ctx context.Context, run *models.ImportRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode import run: %w", err)
	}
	return s.redis.Set(ctx, importRunKey(run.ID), data, s.ttl).Err()
}

func (s *RedisImportRunStore) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	val, err := s.redis.Get(ctx, importRunKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var run models.ImportRun
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return nil, fmt.Errorf("failed to decode import run: %w", err)
	}
	return &run, nil
}
