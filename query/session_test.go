package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/internal/testutil"
	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

func openTable[T any](t *testing.T, rows []T, opts ...SessionOption) *Session {
	t.Helper()
	path := testutil.WriteParquet(t, rows)
	r, err := reader.NewReader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	s := NewSession(opts...)
	s.Register(TableName, r)
	return s
}

func newScoreSession(t *testing.T, n int) *Session {
	t.Helper()
	return openTable(t, testutil.ScoreRows(n))
}

func newEventSession(t *testing.T) *Session {
	t.Helper()
	label := "first"
	lat := 59.9
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	return openTable(t, []testutil.EventRow{
		{
			ID:       1,
			Label:    &label,
			At:       at,
			Day:      19_000,
			Tags:     []string{"a", "b"},
			Attrs:    map[string]int32{"k": 7},
			Location: testutil.Location{City: "Oslo", Lat: &lat},
		},
		{
			ID:       2,
			At:       at.Add(time.Hour),
			Day:      19_001,
			Location: testutil.Location{City: "Bergen"},
		},
		{
			ID:       3,
			At:       at.Add(2 * time.Hour),
			Day:      19_002,
			Location: testutil.Location{City: "Oslo"},
		},
	})
}

// column extracts one column from every result row.
func column(t *testing.T, res *Result, name string) []value.Value {
	t.Helper()
	rows := res.Rows()
	out := make([]value.Value, len(rows))
	for i, row := range rows {
		v, ok := row.Get(name)
		require.True(t, ok, "column %s missing", name)
		out[i] = v
	}
	return out
}

func TestSession_Query(t *testing.T) {
	s := newScoreSession(t, 10)

	tests := []struct {
		name    string
		sql     string
		columns []ResultColumn
		check   func(t *testing.T, res *Result)
	}{
		{
			name: "star keeps file order and types",
			sql:  "SELECT * FROM t LIMIT 2",
			columns: []ResultColumn{
				{Name: "id", DataType: "INT64"},
				{Name: "name", DataType: "STRING"},
				{Name: "score", DataType: "DOUBLE"},
			},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(1), value.Int64(2)}, column(t, res, "id"))
			},
		},
		{
			name: "where with offset and limit",
			sql:  "SELECT id FROM t WHERE id % 2 = 0 LIMIT 2 OFFSET 1",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(4), value.Int64(6)}, column(t, res, "id"))
			},
		},
		{
			name: "order by desc",
			sql:  "SELECT id, score FROM t ORDER BY score DESC LIMIT 3",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(10), value.Int64(9), value.Int64(8)}, column(t, res, "id"))
			},
		},
		{
			name: "order by position and alias",
			sql:  "SELECT id AS k, name FROM t ORDER BY 1 DESC, k LIMIT 1",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(10)}, column(t, res, "k"))
			},
		},
		{
			name: "aggregates over whole table",
			sql:  "SELECT COUNT(*) AS n, SUM(id) AS total, MIN(name) AS lo, MAX(score) AS hi, AVG(id) AS mean FROM t",
			columns: []ResultColumn{
				{Name: "n", DataType: "INT64"},
				{Name: "total", DataType: "INT64"},
				{Name: "lo", DataType: "STRING"},
				{Name: "hi", DataType: "DOUBLE"},
				{Name: "mean", DataType: "DOUBLE"},
			},
			check: func(t *testing.T, res *Result) {
				rows := res.Rows()
				require.Len(t, rows, 1)
				row := rows[0]
				assert.Equal(t, value.Int64(10), row[0].Value)
				assert.Equal(t, value.Int64(55), row[1].Value)
				assert.Equal(t, value.String("user1"), row[2].Value)
				assert.Equal(t, value.Float64(15), row[3].Value)
				assert.Equal(t, value.Float64(5.5), row[4].Value)
			},
		},
		{
			name: "group by with having",
			sql:  "SELECT id % 3 AS bucket, COUNT(*) AS n FROM t GROUP BY id % 3 HAVING COUNT(*) > 3 ORDER BY bucket",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(1)}, column(t, res, "bucket"))
				assert.Equal(t, []value.Value{value.Int64(4)}, column(t, res, "n"))
			},
		},
		{
			name: "having references select alias",
			sql:  "SELECT id % 2 AS parity, SUM(id) AS total FROM t GROUP BY id % 2 HAVING total > 26",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(0)}, column(t, res, "parity"))
				assert.Equal(t, []value.Value{value.Int64(30)}, column(t, res, "total"))
			},
		},
		{
			name: "distinct",
			sql:  "SELECT DISTINCT id % 3 AS m FROM t ORDER BY m",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(0), value.Int64(1), value.Int64(2)}, column(t, res, "m"))
			},
		},
		{
			name: "count distinct",
			sql:  "SELECT COUNT(DISTINCT id % 4) AS n FROM t",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(4)}, column(t, res, "n"))
			},
		},
		{
			name: "aggregate over empty input",
			sql:  "SELECT COUNT(*) AS n, SUM(id) AS s FROM t WHERE id > 100",
			check: func(t *testing.T, res *Result) {
				rows := res.Rows()
				require.Len(t, rows, 1)
				assert.Equal(t, value.Int64(0), rows[0][0].Value)
				assert.Equal(t, value.Null{}, rows[0][1].Value)
			},
		},
		{
			name:    "empty result keeps columns",
			sql:     "SELECT name, score * 2 AS double_score FROM t WHERE id < 0",
			columns: []ResultColumn{{Name: "name", DataType: "STRING"}, {Name: "double_score", DataType: "DOUBLE"}},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, 0, res.NumRows())
			},
		},
		{
			name: "qualified columns",
			sql:  "SELECT x.id FROM t AS x WHERE t.id = 3",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []value.Value{value.Int64(3)}, column(t, res, "id"))
			},
		},
		{
			name: "limit zero",
			sql:  "SELECT * FROM t LIMIT 0",
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, 0, res.NumRows())
				assert.Len(t, res.Columns, 3)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Query(tt.sql)
			require.NoError(t, err)
			if tt.columns != nil {
				assert.Equal(t, tt.columns, res.Columns)
			}
			tt.check(t, res)
		})
	}
}

func TestSession_Batches(t *testing.T) {
	s := openTable(t, testutil.ScoreRows(25), WithBatchSize(10))

	res, err := s.Query("SELECT id FROM t")
	require.NoError(t, err)
	require.Len(t, res.Batches, 3)
	assert.Len(t, res.Batches[0], 10)
	assert.Len(t, res.Batches[2], 5)
	assert.Equal(t, 25, res.NumRows())
}

func TestSession_MaxLimit(t *testing.T) {
	s := newScoreSession(t, 10)

	tests := []struct {
		name  string
		sql   string
		want  int
		first string
	}{
		{name: "order by", sql: "SELECT * FROM t ORDER BY id LIMIT 9223372036854775807 OFFSET 1", want: 9, first: "2"},
		{name: "distinct", sql: "SELECT DISTINCT name FROM t LIMIT 9223372036854775807 OFFSET 2", want: 8, first: "user3"},
		{name: "aggregate", sql: "SELECT COUNT(*) AS n FROM t LIMIT 9223372036854775807", want: 1, first: "10"},
		{name: "streaming", sql: "SELECT id FROM t WHERE id > 0 LIMIT 9223372036854775807 OFFSET 1", want: 9, first: "2"},
		{name: "offset past end", sql: "SELECT id FROM t ORDER BY id LIMIT 9223372036854775807 OFFSET 20", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Query(tt.sql)
			require.NoError(t, err)
			require.Equal(t, tt.want, res.NumRows())
			if tt.want > 0 {
				assert.Equal(t, tt.first, value.ToText(res.Rows()[0][0].Value))
			}
		})
	}
}

func TestSession_Nested(t *testing.T) {
	s := newEventSession(t)

	res, err := s.Query("SELECT id, location.city AS city, label FROM t WHERE location.city = 'Oslo' ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []ResultColumn{
		{Name: "id", DataType: "INT64"},
		{Name: "city", DataType: "STRING"},
		{Name: "label", DataType: "STRING"},
	}, res.Columns)
	assert.Equal(t, []value.Value{value.Int64(1), value.Int64(3)}, column(t, res, "id"))
	assert.Equal(t, []value.Value{value.String("first"), value.Null{}}, column(t, res, "label"))

	res, err = s.Query("SELECT location.city AS city, COUNT(*) AS n FROM t GROUP BY location.city ORDER BY n DESC")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.String("Oslo"), value.String("Bergen")}, column(t, res, "city"))
	assert.Equal(t, []value.Value{value.Int64(2), value.Int64(1)}, column(t, res, "n"))
}

func TestSession_NullsAndTemporal(t *testing.T) {
	s := newEventSession(t)

	res, err := s.Query("SELECT id FROM t WHERE label IS NULL")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int64(2), value.Int64(3)}, column(t, res, "id"))

	// A null predicate drops the row rather than failing.
	res, err = s.Query("SELECT id FROM t WHERE label = 'first' OR location.lat > 100")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int64(1)}, column(t, res, "id"))

	res, err = s.Query("SELECT id FROM t WHERE at >= '2024-03-01 13:30:00' ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int64(2), value.Int64(3)}, column(t, res, "id"))

	res, err = s.Query("SELECT id FROM t ORDER BY label NULLS FIRST, id")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int64(2), value.Int64(3), value.Int64(1)}, column(t, res, "id"))

	res, err = s.Query("SELECT id FROM t ORDER BY label, id")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int64(1), value.Int64(2), value.Int64(3)}, column(t, res, "id"))
}

func TestSession_PlanErrors(t *testing.T) {
	s := newScoreSession(t, 3)

	tests := []struct {
		name    string
		sql     string
		wantErr string
	}{
		{"unknown column", "SELECT missing FROM t", `column "missing" not found`},
		{"unknown table", "SELECT * FROM other", `table "other" not found`},
		{"unknown function", "SELECT NOPE(id) FROM t", "unknown function NOPE"},
		{"wrong arity", "SELECT UPPER(id, name) FROM t", "UPPER"},
		{"aggregate in where", "SELECT id FROM t WHERE COUNT(*) > 1", "not allowed in WHERE"},
		{"ungrouped column", "SELECT name, COUNT(*) FROM t GROUP BY id", "GROUP BY"},
		{"nested aggregate", "SELECT SUM(COUNT(*)) FROM t", "nested"},
		{"duplicate output", "SELECT id, id FROM t", "duplicate output column name"},
		{"order position out of range", "SELECT id FROM t ORDER BY 5", "ORDER BY position"},
		{"nested field on leaf", "SELECT id.x FROM t", "has no field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Query(tt.sql)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindQueryPlan), "want a query plan error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSession_ConversionError(t *testing.T) {
	s := newScoreSession(t, 3)

	_, err := s.Query("SELECT * FROM t WHERE name > 1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConversion))
}

func TestSession_CaseInsensitiveColumns(t *testing.T) {
	s := newScoreSession(t, 2)

	res, err := s.Query("SELECT ID, Name FROM T")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int64(1), value.Int64(2)}, column(t, res, "id"))

	_, err = s.Query(`SELECT "ID" FROM t`)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindQueryPlan))
}

func TestSession_Concurrent(t *testing.T) {
	s := newScoreSession(t, 50)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := s.Query("SELECT id % 5 AS k, COUNT(*) FROM t GROUP BY id % 5")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
