// Package reader provides functionality for reading Apache Parquet files.
//
// It resolves the type annotations of every schema element, summarizes the
// footer into a Metadata descriptor and reassembles rows from their flat
// leaf values into nested value.Record trees.
//
// # Basic Usage
//
// Reading a window of rows:
//
//	r, err := reader.NewReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	rows, err := r.ReadRows(0, 100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, row := range rows {
//	    fmt.Println(value.RowToJSON(row))
//	}
//
// # Streaming
//
// Scan delivers rows in batches and skips the offset without decoding:
//
//	err := r.Scan(reader.ScanOptions{Offset: 1000, Limit: -1}, func(batch []value.Record) error {
//	    return process(batch)
//	})
//
// # Schema Introspection
//
//	meta, err := reader.BuildMetadata("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range meta.Columns {
//	    fmt.Printf("%s: %s\n", c.Name, c.ColumnType)
//	}
//
// # Type resolution
//
// A column's normalized type is its logical annotation when present, else
// its legacy converted annotation, else its physical type. Annotations this
// package does not recognize degrade to their own name or OTHER.
//
// The package uses github.com/parquet-go/parquet-go for the underlying
// parquet file operations.
package reader
