package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_SeparateRegistries(t *testing.T) {
	// Two collectors with the same namespace must not collide
	a := NewCollector("stats", prometheus.NewRegistry())
	b := NewCollector("stats", prometheus.NewRegistry())

	a.RecordAPIRequest("/api/teams/stats", "GET", "200")
	assert.Equal(t, float64(1), testutil.ToFloat64(a.APIRequestsTotal.WithLabelValues("/api/teams/stats", "GET", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.APIRequestsTotal.WithLabelValues("/api/teams/stats", "GET", "200")))
}

func TestCollector_Recorders(t *testing.T) {
	c := NewCollector("stats", prometheus.NewRegistry())

	c.RecordTransform("team_batting", 12, 5*time.Millisecond)
	c.RecordTransform("team_batting", 3, time.Millisecond)
	c.RecordMissingColumns("team_pitching")
	c.RecordUnresolvedLookup("school_id")
	c.RecordCacheResult("team", "hit")
	c.RecordCacheResult("team", "hit")
	c.RecordAPIError("validation", "/api/players/stats")
	c.UpdateDBConnectionPool(2, 3, 5)

	assert.Equal(t, float64(15), testutil.ToFloat64(c.TransformRowsTotal.WithLabelValues("team_batting")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.MissingColumnsTotal.WithLabelValues("team_pitching")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.UnresolvedLookupsTotal.WithLabelValues("school_id")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.CacheRequestsTotal.WithLabelValues("team", "hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.APIErrorsTotal.WithLabelValues("validation", "/api/players/stats")))
	assert.Equal(t, float64(5), testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.TransformDuration))
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewCollector("stats", prometheus.NewRegistry())

	timer := c.NewTimer(c.DBQueryDuration.WithLabelValues("fetch_team_stats"))
	assert.GreaterOrEqual(t, timer.ObserveDuration(), time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.DBQueryDuration))

	assert.NotPanics(t, func() { c.NewTimer(nil).ObserveDuration() })
}
