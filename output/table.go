package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/parqsee/value"
)

// TableFormatter renders rows as a bordered text table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format writes a header row and one line per row. Null cells are blank.
func (t *TableFormatter) Format(columns []string, rows []value.Record) error {
	table := tablewriter.NewWriter(t.writer)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row.Get(col); ok {
				cells[i] = value.ToText(v)
			}
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}
