package store

import (
	dbredis "Jarvis_Memory/backend/go/internal/database/redis"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is the CacheStore implementation backed by Redis. Facts
// are stored as JSON under "memory:<user>:<category>", one entry per
// (user, category): the cache answers "what is the freshest fact of
// this kind", not full history.
type RedisStore struct {
	client *dbredis.RedisClient
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *dbredis.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func cacheKey(userID string, category models.Category) string {
	return fmt.Sprintf("memory:%s:%s", userID, category)
}

// GetFact retrieves the cached fact for (user, category).
func (s *RedisStore) GetFact(ctx context.Context, userID string, category models.Category) (*models.Fact, error) {
	raw, err := s.client.Client.Get(ctx, cacheKey(userID, category)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var fact models.Fact
	if err := json.Unmarshal(raw, &fact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached fact: %w", err)
	}
	return &fact, nil
}

// SetFact caches fact under its (user, category) key with the given TTL.
func (s *RedisStore) SetFact(ctx context.Context, fact *models.Fact, ttl time.Duration) error {
	raw, err := json.Marshal(fact)
	if err != nil {
		return fmt.Errorf("failed to marshal fact: %w", err)
	}
	if err := s.client.Client.Set(ctx, cacheKey(fact.UserID, fact.Category), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// DeleteFact drops the cached entry for (user, category).
func (s *RedisStore) DeleteFact(ctx context.Context, userID string, category models.Category) error {
	if err := s.client.Client.Del(ctx, cacheKey(userID, category)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// DeleteUser removes every cache entry belonging to the user by
// scanning the user's key prefix.
func (s *RedisStore) DeleteUser(ctx context.Context, userID string) error {
	pattern := fmt.Sprintf("memory:%s:*", userID)
	iter := s.client.Client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del failed for %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return nil
}
