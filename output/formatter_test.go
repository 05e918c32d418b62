package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

func sampleRows() []value.Record {
	return []value.Record{
		{
			{Name: "id", Value: value.Int64(1)},
			{Name: "name", Value: value.String("alice, \"a\"")},
			{Name: "tags", Value: value.List{value.String("x"), value.Null{}}},
		},
		{
			{Name: "id", Value: value.Int64(2)},
			{Name: "name", Value: value.Null{}},
		},
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	tests := []struct {
		name    string
		rows    []value.Record
		opts    []CSVOption
		want    [][]string
		wantBOM bool
	}{
		{
			name: "empty rows",
			rows: nil,
			want: [][]string{{"id", "name", "tags"}},
		},
		{
			name: "rows with missing and null fields",
			rows: sampleRows(),
			want: [][]string{
				{"id", "name", "tags"},
				{"1", `alice, "a"`, value.ListPlaceholder},
				{"2", "", ""},
			},
		},
		{
			name:    "byte order mark",
			rows:    sampleRows()[:1],
			opts:    []CSVOption{WithBOM()},
			want:    [][]string{{"id", "name", "tags"}, {"1", `alice, "a"`, value.ListPlaceholder}},
			wantBOM: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := NewCSVFormatter(&buf, tt.opts...)
			require.NoError(t, formatter.Format([]string{"id", "name", "tags"}, tt.rows))

			out := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(out, utf8BOM))
			out = bytes.TrimPrefix(out, utf8BOM)

			records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
			require.NoError(t, err, "Format() produced invalid CSV")
			assert.Equal(t, tt.want, records)
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(nil, sampleRows()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[\n  {"), out)
	assert.JSONEq(t, `[
		{"id": 1, "name": "alice, \"a\"", "tags": ["x", null]},
		{"id": 2, "name": null}
	]`, out)

	buf.Reset()
	require.NoError(t, NewJSONFormatter(&buf).Format(nil, nil))
	assert.Equal(t, "[]", buf.String())
}

func TestJSONLinesFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONLinesFormatter(&buf).Format(nil, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var obj map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(line), &obj), "line should be valid JSON: %s", line)
	}
	assert.Equal(t, `{"id":2,"name":null}`, lines[1])
}

func TestTableFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(&buf).Format([]string{"id", "name"}, sampleRows()))

	out := buf.String()
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, `alice, "a"`)
	assert.Equal(t, 6, strings.Count(out, "\n"), out)
}

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name string
		want interface{}
	}{
		{"csv", &CSVFormatter{}},
		{"JSON", &JSONFormatter{}},
		{"jsonl", &JSONLinesFormatter{}},
		{"Table", &TableFormatter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name, &buf)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}

	_, err := NewFormatter("xml", &buf)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindUnsupportedFormat))
}

func TestFormatter_SetOutput(t *testing.T) {
	var first, second bytes.Buffer
	formatter := NewJSONLinesFormatter(&first)
	formatter.SetOutput(&second)
	require.NoError(t, formatter.Format(nil, sampleRows()[:1]))

	assert.Empty(t, first.String())
	assert.NotEmpty(t, second.String())
}
