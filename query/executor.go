package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

// TableName is the name a file is registered under in its session.
const TableName = "t"

// SQLColumn describes one column of an ad-hoc query result.
type SQLColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// ColumnNames returns the result column names in order.
func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// SQLResult is the materialized result of ExecuteSQL.
type SQLResult struct {
	Columns         []SQLColumn    `json:"columns"`
	Rows            []value.Object `json:"rows"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
}

// Querier runs SQL text. *Session implements it.
type Querier interface {
	Query(sql string) (*Result, error)
}

// buildSelect renders the SELECT used by ReadData and CountData. The filter
// is caller text inserted as is.
func buildSelect(items, filter string) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(items)
	sb.WriteString(" FROM ")
	sb.WriteString(TableName)
	if f := strings.TrimSpace(filter); f != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(f)
	}
	return sb.String()
}

// Read runs the paginated SELECT behind ReadData and returns the raw
// result.
func Read(q Querier, offset, limit int64, filter string) (*Result, error) {
	sql := buildSelect("*", filter) +
		" LIMIT " + strconv.FormatInt(limit, 10) +
		" OFFSET " + strconv.FormatInt(offset, 10)
	return q.Query(sql)
}

// ReadData returns limit rows starting at offset, optionally filtered by a
// WHERE predicate.
func ReadData(q Querier, offset, limit int64, filter string) ([]value.Object, error) {
	res, err := Read(q, offset, limit, filter)
	if err != nil {
		return nil, err
	}
	return materialize(res), nil
}

// CountData counts the rows matching an optional WHERE predicate.
func CountData(q Querier, filter string) (int64, error) {
	res, err := q.Query(buildSelect("COUNT(*)", filter))
	if err != nil {
		return 0, err
	}
	if len(res.Batches) == 0 || len(res.Batches[0]) == 0 {
		return 0, nil
	}
	row := res.Batches[0][0]
	if len(row) == 0 {
		return 0, nil
	}
	n, ok := row[0].Value.(value.Int64)
	if !ok {
		return 0, errs.New(errs.KindConversion, "count", "expected INT64 count, got %s", row[0].Value.Kind())
	}
	return int64(n), nil
}

// ExecuteSQL runs caller SQL unchanged and materializes the result.
func ExecuteSQL(q Querier, sql string) (*SQLResult, error) {
	start := time.Now()

	res, err := q.Query(sql)
	if err != nil {
		return nil, err
	}

	out := &SQLResult{
		Columns: make([]SQLColumn, len(res.Columns)),
		Rows:    materialize(res),
	}
	for i, c := range res.Columns {
		out.Columns[i] = SQLColumn(c)
	}
	out.ExecutionTimeMs = time.Since(start).Milliseconds()
	return out, nil
}

// materialize converts result batches to JSON rows, keeping batch and row
// order.
func materialize(res *Result) []value.Object {
	rows := make([]value.Object, 0, res.NumRows())
	for _, batch := range res.Batches {
		for _, rec := range batch {
			rows = append(rows, value.RowToJSON(rec))
		}
	}
	return rows
}
