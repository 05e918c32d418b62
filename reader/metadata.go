package reader

// Column describes one top-level field of a parquet file.
type Column struct {
	Name string `json:"name"`
	// ColumnType is the normalized type: the logical label if the field has
	// one, else its converted type label, else its physical type.
	ColumnType   string `json:"column_type"`
	LogicalType  string `json:"logical_type,omitempty"`
	PhysicalType string `json:"physical_type"`
}

// Metadata is the schema summary of a parquet file.
type Metadata struct {
	NumRows    int64    `json:"num_rows"`
	NumColumns int      `json:"num_columns"`
	Columns    []Column `json:"columns"`
}

// ColumnNames returns the column names in schema order.
func (m *Metadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the descriptor of the named column.
func (m *Metadata) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// BuildMetadata opens the file at path and summarizes its footer.
//
// Open and read failures are io errors; an unparseable footer or schema is
// a format error.
func BuildMetadata(path string) (*Metadata, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.Metadata(), nil
}

func newMetadata(numRows int64, s *Schema) *Metadata {
	fields := s.Fields()
	m := &Metadata{
		NumRows:    numRows,
		NumColumns: len(fields),
		Columns:    make([]Column, 0, len(fields)),
	}
	for _, f := range fields {
		m.Columns = append(m.Columns, Column{
			Name:         f.Name,
			ColumnType:   f.Tags.ColumnType(),
			LogicalType:  f.Tags.Label,
			PhysicalType: f.Tags.PhysicalLabel(),
		})
	}
	return m
}
