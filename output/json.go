package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vegasq/parqsee/value"
)

// JSONFormatter outputs rows as one indented JSON array
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON array formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as a JSON array indented by two spaces. Members keep
// the field order of each row.
func (j *JSONFormatter) Format(_ []string, rows []value.Record) error {
	objects := make([]value.Object, len(rows))
	for i, row := range rows {
		objects[i] = value.RowToJSON(row)
	}
	b, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	_, err = j.writer.Write(b)
	return err
}

// JSONLinesFormatter outputs rows as JSON Lines format
type JSONLinesFormatter struct {
	writer io.Writer
}

// NewJSONLinesFormatter creates a new JSON Lines formatter
func NewJSONLinesFormatter(w io.Writer) *JSONLinesFormatter {
	return &JSONLinesFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONLinesFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line)
func (j *JSONLinesFormatter) Format(_ []string, rows []value.Record) error {
	encoder := json.NewEncoder(j.writer)
	for _, row := range rows {
		if err := encoder.Encode(value.RowToJSON(row)); err != nil {
			return err
		}
	}
	return nil
}
