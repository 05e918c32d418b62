package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vegasq/parqsee/value"
)

// utf8BOM lets spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer
	bom    bool
}

// CSVOption configures a CSVFormatter.
type CSVOption func(*CSVFormatter)

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM() CSVOption {
	return func(c *CSVFormatter) {
		c.bom = true
	}
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer, opts ...CSVOption) *CSVFormatter {
	c := &CSVFormatter{writer: w}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes a header of column names and one record per row. Cells
// are the flat text of the named field, or empty when the row lacks it.
func (c *CSVFormatter) Format(columns []string, rows []value.Record) error {
	if c.bom {
		if _, err := c.writer.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write byte order mark: %w", err)
		}
	}

	csvWriter := csv.NewWriter(c.writer)

	if err := csvWriter.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = ""
			if v, ok := row.Get(col); ok {
				record[i] = value.ToText(v)
			}
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	// Flush and check for errors
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return nil
}
