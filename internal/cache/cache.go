package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fploptimizer/internal/types"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the cache capability the pipeline needs: one upstream data
// snapshot and projection sets keyed by gameweek.
type Store interface {
	GetSnapshot(ctx context.Context) (*types.DataSnapshot, error)
	SetSnapshot(ctx context.Context, snap *types.DataSnapshot) error
	GetProjections(ctx context.Context, gameweek int) ([]types.PlayerProjection, error)
	SetProjections(ctx context.Context, gameweek int, projections []types.PlayerProjection) error
	Close() error
}

const (
	snapshotKey      = "fpl:snapshot"
	projectionPrefix = "fpl:projections:gw"
)

// RedisStore caches snapshots and projections in Redis as JSON, each entry
// expiring after the configured TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// NewRedisStore parses the Redis URL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration, logger *logrus.Entry) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}, nil
}

// GetSnapshot retrieves the cached upstream data snapshot.
func (s *RedisStore) GetSnapshot(ctx context.Context) (*types.DataSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get snapshot from cache: %w", err)
	}

	var snap types.DataSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cache_key":  snapshotKey,
		"players":    len(snap.Players),
		"fetched_at": snap.FetchedAt,
	}).Debug("Retrieved snapshot from cache")
	return &snap, nil
}

// SetSnapshot stores the upstream data snapshot.
func (s *RedisStore) SetSnapshot(ctx context.Context, snap *types.DataSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot in cache: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cache_key":  snapshotKey,
		"players":    len(snap.Players),
		"expiration": s.ttl,
	}).Debug("Cached snapshot")
	return nil
}

// GetProjections retrieves cached projections for a starting gameweek.
func (s *RedisStore) GetProjections(ctx context.Context, gameweek int) ([]types.PlayerProjection, error) {
	key := fmt.Sprintf("%s%d", projectionPrefix, gameweek)
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get projections from cache: %w", err)
	}

	var projections []types.PlayerProjection
	if err := json.Unmarshal([]byte(data), &projections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached projections: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cache_key":   key,
		"projections": len(projections),
	}).Debug("Retrieved projections from cache")
	return projections, nil
}

// SetProjections stores projections for a starting gameweek.
func (s *RedisStore) SetProjections(ctx context.Context, gameweek int, projections []types.PlayerProjection) error {
	data, err := json.Marshal(projections)
	if err != nil {
		return fmt.Errorf("failed to marshal projections: %w", err)
	}
	key := fmt.Sprintf("%s%d", projectionPrefix, gameweek)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set projections in cache: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cache_key":   key,
		"projections": len(projections),
		"expiration":  s.ttl,
	}).Debug("Cached projections")
	return nil
}

// Flush drops every key this store owns.
func (s *RedisStore) Flush(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, "fpl:*").Result()
	if err != nil {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}
	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	s.logger.WithField("deleted_keys", len(keys)).Info("Flushed cache")
	return nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NoopStore misses every read and drops every write. The one-shot CLI uses it
// so a solve never depends on a running Redis.
type NoopStore struct{}

func (NoopStore) GetSnapshot(context.Context) (*types.DataSnapshot, error) { return nil, ErrMiss }
func (NoopStore) SetSnapshot(context.Context, *types.DataSnapshot) error   { return nil }
func (NoopStore) GetProjections(context.Context, int) ([]types.PlayerProjection, error) {
	return nil, ErrMiss
}
func (NoopStore) SetProjections(context.Context, int, []types.PlayerProjection) error { return nil }
func (NoopStore) Close() error                                                        { return nil }
