package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return data, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingSource struct {
	teamCalls   int
	playerCalls int
	err         error
}

func (s *countingSource) FetchTeamStats(_ context.Context, schoolID int64, season int, kind models.StatKind) ([]models.RawStatRow, error) {
	s.teamCalls++
	if s.err != nil {
		return nil, s.err
	}
	return []models.RawStatRow{{"name": "Able", "wRC": 12.5, "season": float64(season)}}, nil
}

func (s *countingSource) FetchPlayerCareerStats(_ context.Context, playerID int64, kind models.StatKind) ([]models.RawStatRow, error) {
	s.playerCalls++
	return []models.RawStatRow{{"season": 2014.0}, {"season": 2015.0}}, nil
}

func newTestCache(source *countingSource, store Store) (*StatsCache, *metrics.Collector) {
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	return NewStatsCache(source, store, time.Hour, logging.NewNopLogger(), collector), collector
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "stats:team:736:2015:batting", TeamKey(736, 2015, models.Batting))
	assert.Equal(t, "stats:player:42:pitching", PlayerKey(42, models.Pitching))
}

func TestStatsCache_MissThenHit(t *testing.T) {
	source := &countingSource{}
	store := newMemoryStore()
	c, collector := newTestCache(source, store)
	ctx := context.Background()

	first, err := c.FetchTeamStats(ctx, 736, 2015, models.Batting)
	require.NoError(t, err)
	second, err := c.FetchTeamStats(ctx, 736, 2015, models.Batting)
	require.NoError(t, err)

	assert.Equal(t, 1, source.teamCalls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, store.ttls[TeamKey(736, 2015, models.Batting)])
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.CacheRequestsTotal.WithLabelValues("team", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.CacheRequestsTotal.WithLabelValues("team", "hit")))
}

func TestStatsCache_PlayerRows(t *testing.T) {
	source := &countingSource{}
	c, _ := newTestCache(source, newMemoryStore())

	for i := 0; i < 3; i++ {
		rows, err := c.FetchPlayerCareerStats(context.Background(), 1, models.Batting)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	}
	assert.Equal(t, 1, source.playerCalls)
}

func TestStatsCache_StoreErrorFallsBack(t *testing.T) {
	source := &countingSource{}
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	c, collector := newTestCache(source, store)

	rows, err := c.FetchTeamStats(context.Background(), 1, 2020, models.Pitching)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.CacheRequestsTotal.WithLabelValues("team", "error")))
}

func TestStatsCache_CorruptEntryRefetched(t *testing.T) {
	source := &countingSource{}
	store := newMemoryStore()
	store.entries[TeamKey(1, 2020, models.Batting)] = []byte("{not json")
	c, _ := newTestCache(source, store)

	rows, err := c.FetchTeamStats(context.Background(), 1, 2020, models.Batting)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, source.teamCalls)
}

func TestStatsCache_SourceErrorNotCached(t *testing.T) {
	source := &countingSource{err: errors.New("db down")}
	store := newMemoryStore()
	c, _ := newTestCache(source, store)

	_, err := c.FetchTeamStats(context.Background(), 1, 2020, models.Batting)
	require.Error(t, err)
	assert.Empty(t, store.entries)
}

func TestRedisStore_UnreachableFallsBack(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	source := &countingSource{}
	c, _ := newTestCache(source, NewRedisStore(client))

	rows, err := c.FetchTeamStats(context.Background(), 736, 2015, models.Batting)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, source.teamCalls)
}
