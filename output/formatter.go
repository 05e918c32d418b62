package output

import (
	"io"
	"strings"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to write rows in the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes rows whose fields follow columns
	Format(columns []string, rows []value.Record) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Format names accepted by NewFormatter.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatTable = "table"
)

// NewFormatter returns the formatter registered under name,
// case-insensitively.
func NewFormatter(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case FormatCSV:
		return NewCSVFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	case FormatJSONL:
		return NewJSONLinesFormatter(w), nil
	case FormatTable:
		return NewTableFormatter(w), nil
	}
	return nil, errs.New(errs.KindUnsupportedFormat, "format", "unsupported output format: %s", name)
}
