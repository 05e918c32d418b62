package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/internal/metrics"
	"github.com/vegasq/parqsee/internal/testutil"
	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

func ptr(n int64) *int64 { return &n }

func TestExport_CSV(t *testing.T) {
	src := testutil.WriteParquet(t, testutil.ScoreRows(10))
	dst := filepath.Join(t.TempDir(), "out.csv")

	msg, err := Export(src, dst, "CSV", ptr(2), ptr(3))
	require.NoError(t, err)
	assert.Equal(t, "Successfully exported 3 rows to "+dst, msg)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "score"},
		{"3", "user3", "4.5"},
		{"4", "user4", "6"},
		{"5", "user5", "7.5"},
	}, records)
}

func TestExport_JSON(t *testing.T) {
	src := testutil.WriteParquet(t, testutil.ScoreRows(4))
	dst := filepath.Join(t.TempDir(), "out.json")

	msg, err := Export(src, dst, "json", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Successfully exported 4 rows to "+dst, msg)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "name": "user1", "score": 1.5}, rows[0])
}

func TestExport_Window(t *testing.T) {
	src := testutil.WriteParquet(t, testutil.ScoreRows(5))

	tests := []struct {
		name          string
		offset, limit *int64
		want          int
	}{
		{"defaults", nil, nil, 5},
		{"offset only", ptr(3), nil, 2},
		{"limit only", nil, ptr(2), 2},
		{"limit past end", ptr(4), ptr(10), 1},
		{"offset past end", ptr(9), nil, 0},
		{"zero limit", nil, ptr(0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "out.json")
			_, err := Export(src, dst, "json", tt.offset, tt.limit)
			require.NoError(t, err)

			data, err := os.ReadFile(dst)
			require.NoError(t, err)
			var rows []map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &rows))
			assert.Len(t, rows, tt.want)
		})
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.xml")

	_, err := Export("/does/not/exist.parquet", dst, "xml", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindUnsupportedFormat))
	assert.Contains(t, err.Error(), "unsupported export format: xml")

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "destination must not be created")

	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o600))
	src := testutil.WriteParquet(t, testutil.ScoreRows(3))

	_, err = Export(src, existing, "parquet", nil, nil)
	assert.True(t, errs.Is(err, errs.KindUnsupportedFormat))
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func writeEvents(t *testing.T) string {
	t.Helper()
	label := "first"
	lat := 59.9
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	return testutil.WriteParquet(t, []testutil.EventRow{
		{
			ID: 1, Label: &label, At: at, Day: 19_000,
			Tags: []string{"a", "b"}, Attrs: map[string]int32{"k": 7},
			Location: testutil.Location{City: "Oslo", Lat: &lat},
		},
		{
			ID: 2, At: at.Add(time.Hour), Day: 19_001,
			Location: testutil.Location{City: "Bergen"},
		},
	})
}

func TestExport_NestedCSV(t *testing.T) {
	src := writeEvents(t)
	dst := filepath.Join(t.TempDir(), "events.csv")

	_, err := Export(src, dst, "csv", nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "label", "at", "day", "tags", "attrs", "location"}, records[0])
	assert.Equal(t, []string{"1", "first", "2024-03-01 12:30:00.000", "2022-01-08",
		value.ListPlaceholder, value.MapPlaceholder, value.GroupPlaceholder}, records[1])

	// Nulls become empty cells; empty nested values keep their placeholder.
	assert.Equal(t, "", records[2][1])
	assert.Equal(t, []string{"[LIST]", "[MAP]", "[GROUP]"}, records[2][4:])
}

func TestExport_NestedJSONMatchesRowConversion(t *testing.T) {
	src := writeEvents(t)
	dst := filepath.Join(t.TempDir(), "events.json")

	_, err := Export(src, dst, "json", nil, nil)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)

	r, err := reader.NewReader(src)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	rows, err := r.ReadRows(0, r.NumRows())
	require.NoError(t, err)

	objects := make([]value.Object, len(rows))
	for i, row := range rows {
		objects[i] = value.RowToJSON(row)
	}
	want, err := json.Marshal(objects)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(data))

	var parsed []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, map[string]interface{}{"\"k\"": float64(7)}, parsed[0]["attrs"])
	assert.Nil(t, parsed[1]["label"])
}

func TestExport_SourceErrors(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.csv")

	_, err := Export("/does/not/exist.parquet", dst, "csv", nil, nil)
	assert.True(t, errs.Is(err, errs.KindIO))

	_, err = Export(testutil.WriteGarbage(t), dst, "csv", nil, nil)
	assert.True(t, errs.Is(err, errs.KindFormat))
}

func TestExporter_Metrics(t *testing.T) {
	src := testutil.WriteParquet(t, testutil.ScoreRows(6))
	m := metrics.New(prometheus.NewRegistry())
	e := NewExporter(WithMetrics(m))

	_, err := e.Export(src, filepath.Join(t.TempDir(), "a.csv"), "csv", nil, ptr(4))
	require.NoError(t, err)
	_, err = e.Export(src, filepath.Join(t.TempDir(), "b.json"), "json", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 4.0, promtest.ToFloat64(m.ExportRows.WithLabelValues("csv")))
	assert.Equal(t, 6.0, promtest.ToFloat64(m.ExportRows.WithLabelValues("json")))
}
