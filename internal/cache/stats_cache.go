package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// ErrMiss is returned by a Store for an absent key
var ErrMiss = errors.New("cache miss")

// Store is the key-value surface the stats cache needs
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore keeps cached entries in Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// Get reads a key, mapping redis.Nil to ErrMiss
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Set writes a key with an expiry
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// TeamKey is the cache key of a school-season stat set
func TeamKey(schoolID int64, season int, kind models.StatKind) string {
	return fmt.Sprintf("stats:team:%d:%d:%s", schoolID, season, kind)
}

// PlayerKey is the cache key of a player's career stat set
func PlayerKey(playerID int64, kind models.StatKind) string {
	return fmt.Sprintf("stats:player:%d:%s", playerID, kind)
}

// StatsCache is a read-through cache in front of a StatsSource. Stored
// statistics are immutable between ingestions, so entries only expire.
// Cache failures never fail a fetch; the source is used instead.
type StatsCache struct {
	source  repository.StatsSource
	store   Store
	ttl     time.Duration
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatsCache wraps source with a cache kept in store
func NewStatsCache(source repository.StatsSource, store Store, ttl time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatsCache {
	return &StatsCache{
		source:  source,
		store:   store,
		ttl:     ttl,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// FetchTeamStats returns cached team rows or fetches and caches them
func (c *StatsCache) FetchTeamStats(ctx context.Context, schoolID int64, season int, kind models.StatKind) ([]models.RawStatRow, error) {
	return c.fetch(ctx, "team", TeamKey(schoolID, season, kind), func() ([]models.RawStatRow, error) {
		return c.source.FetchTeamStats(ctx, schoolID, season, kind)
	})
}

// FetchPlayerCareerStats returns cached career rows or fetches and caches them
func (c *StatsCache) FetchPlayerCareerStats(ctx context.Context, playerID int64, kind models.StatKind) ([]models.RawStatRow, error) {
	return c.fetch(ctx, "player", PlayerKey(playerID, kind), func() ([]models.RawStatRow, error) {
		return c.source.FetchPlayerCareerStats(ctx, playerID, kind)
	})
}

func (c *StatsCache) fetch(ctx context.Context, kind, key string, load func() ([]models.RawStatRow, error)) ([]models.RawStatRow, error) {
	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var rows []models.RawStatRow
		if err := json.Unmarshal(data, &rows); err == nil {
			c.metrics.RecordCacheResult(kind, "hit")
			return rows, nil
		}
		c.metrics.RecordCacheResult(kind, "error")
		c.logger.Warn(ctx, "[CACHE_DECODE_ERROR] Discarding undecodable cache entry", logging.Fields{
			"key": key,
		})
	case errors.Is(err, ErrMiss):
		c.metrics.RecordCacheResult(kind, "miss")
	default:
		c.metrics.RecordCacheResult(kind, "error")
		c.logger.Warn(ctx, "[CACHE_READ_ERROR] Cache unavailable, reading from store", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}

	rows, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rows); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn(ctx, "[CACHE_WRITE_ERROR] Failed to cache stat rows", logging.Fields{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return rows, nil
}
