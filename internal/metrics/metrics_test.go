package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Hit(KindSession)
	m.Hit(KindSession)
	m.Miss(KindMetadata)
	m.Evicted(KindSession)
	m.Built()
	m.Exported("csv", 12)
	m.ObserveQuery("read_data", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues(KindSession)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHits.WithLabelValues(KindMetadata)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues(KindMetadata)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictions.WithLabelValues(KindSession)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionBuilds))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.ExportRows.WithLabelValues("csv")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.QueryDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "parqsee_cache_hits_total")
	assert.Contains(t, names, "parqsee_query_duration_seconds")
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Hit(KindSession)
		m.Miss(KindSession)
		m.Evicted(KindMetadata)
		m.Built()
		m.Exported("json", 1)
		m.ObserveQuery("count_data", time.Now())
	})
}
