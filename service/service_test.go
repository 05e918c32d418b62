package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parqsee/cache"
	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/internal/metrics"
	"github.com/vegasq/parqsee/internal/testutil"
	"github.com/vegasq/parqsee/value"
)

func newService(t *testing.T, opts ...Option) (*Service, *cache.Cache) {
	t.Helper()
	c := cache.New()
	t.Cleanup(func() { _ = c.Close() })
	return New(c, opts...), c
}

func TestService_ReadAndCount(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(12))
	s, c := newService(t)

	rows, err := s.ReadData(path, 10, 5, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	id, _ := rows[0].Get("id")
	assert.Equal(t, int64(11), id)

	n, err := s.CountData(path, "")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	n, err = s.CountData(path, "score < 3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sessions, _ := c.Len()
	assert.Equal(t, 1, sessions)
}

func TestService_OpenFile(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(2))
	s, _ := newService(t)

	meta, err := s.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.NumRows)
	assert.Equal(t, 3, meta.NumColumns)

	col, ok := meta.Column("score")
	require.True(t, ok)
	assert.Equal(t, "DOUBLE", col.ColumnType)
	assert.Equal(t, "DOUBLE", col.PhysicalType)
	assert.Empty(t, col.LogicalType)
}

func TestService_EvictCache(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(2))
	s, c := newService(t)

	_, err := s.OpenFile(path)
	require.NoError(t, err)
	_, err = s.CountData(path, "")
	require.NoError(t, err)

	require.NoError(t, s.EvictCache(path))
	sessions, meta := c.Len()
	assert.Equal(t, 0, sessions)
	assert.Equal(t, 0, meta)

	require.NoError(t, s.EvictCache(path), "evicting an absent path is a no-op")
}

func TestService_ExecuteSQL(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(6))
	s, _ := newService(t)

	res, err := s.ExecuteSQL(path, "SELECT id % 2 AS parity, COUNT(*) AS n FROM t GROUP BY id % 2 ORDER BY parity")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "parity", res.Columns[0].Name)
	assert.Equal(t, "INT64", res.Columns[1].DataType)

	n, _ := res.Rows[1].Get("n")
	assert.Equal(t, int64(3), n)

	_, err = s.ExecuteSQL(path, "SELECT nope FROM t")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindQueryPlan))
}

func TestService_ExportData(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(3))
	s, c := newService(t)
	dst := filepath.Join(t.TempDir(), "out.json")

	msg, err := s.ExportData(path, dst, "json", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Successfully exported 3 rows to "+dst, msg)
	_, err = os.Stat(dst)
	assert.NoError(t, err)

	sessions, meta := c.Len()
	assert.Equal(t, 0, sessions, "export bypasses the cache")
	assert.Equal(t, 0, meta)

	_, err = s.ExportData(path, dst, "parquet", nil, nil)
	assert.True(t, errs.Is(err, errs.KindUnsupportedFormat))
}

func TestService_Errors(t *testing.T) {
	s, c := newService(t)

	_, err := s.ReadData("/does/not/exist.parquet", 0, 10, "")
	assert.True(t, errs.Is(err, errs.KindIO))

	_, err = s.OpenFile(testutil.WriteGarbage(t))
	assert.True(t, errs.Is(err, errs.KindFormat))

	sessions, meta := c.Len()
	assert.Equal(t, 0, sessions)
	assert.Equal(t, 0, meta)
}

func TestService_Metrics(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(3))
	m := metrics.New(prometheus.NewRegistry())
	s, _ := newService(t, WithMetrics(m))

	_, err := s.ReadData(path, 0, 1, "")
	require.NoError(t, err)
	_, err = s.ReadData(path, 1, 1, "")
	require.NoError(t, err)
	_, err = s.ExportData(path, filepath.Join(t.TempDir(), "x.csv"), "csv", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, promtest.CollectAndCount(m.QueryDuration))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.ExportRows.WithLabelValues("csv")))
}

func TestService_RowsAndQuery(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.ScoreRows(5))
	s, _ := newService(t)

	res, err := s.Rows(path, 1, 2, "id > 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "score"}, res.ColumnNames())
	require.Equal(t, 2, res.NumRows())
	id, _ := res.Rows()[0].Get("id")
	assert.Equal(t, "3", value.ToText(id))

	res, err = s.Query(path, "SELECT MAX(score) AS top FROM t")
	require.NoError(t, err)
	assert.Equal(t, []string{"top"}, res.ColumnNames())
	assert.Equal(t, "7.5", value.ToText(res.Rows()[0][0].Value))
}
