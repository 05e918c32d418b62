package reader

import (
	"errors"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/value"
)

// DefaultBatchSize is the number of rows per batch when none is configured.
const DefaultBatchSize = 1024

// Reader reads rows of a parquet file as records.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Reader struct {
	path   string
	file   *os.File
	pqFile *parquet.File
	schema *Schema
}

// ScanOptions selects a window of rows.
type ScanOptions struct {
	// Offset is the number of leading rows to skip without decoding.
	Offset int64
	// Limit caps the rows delivered. A negative limit means no cap.
	Limit int64
	// BatchSize is the number of rows per callback. Zero uses DefaultBatchSize.
	BatchSize int
}

// NewReader opens the parquet file at path read-only and parses its footer.
//
// Example:
//
//	r, err := reader.NewReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindIO, "open", "failed to open file")
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errs.Wrap(err, errs.KindIO, "open", "failed to stat file")
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, errs.Wrap(err, errs.KindFormat, "open", "failed to open parquet file")
	}

	schema, err := BuildSchema(pqFile.Metadata().Schema)
	if err != nil {
		_ = file.Close()
		return nil, errs.Wrap(err, errs.KindFormat, "open", "invalid parquet schema")
	}

	return &Reader{
		path:   path,
		file:   file,
		pqFile: pqFile,
		schema: schema,
	}, nil
}

// Path returns the path the reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// NumRows returns the row count recorded in the footer.
func (r *Reader) NumRows() int64 {
	return r.pqFile.NumRows()
}

// Schema returns the schema tree.
func (r *Reader) Schema() *Schema {
	return r.schema
}

// Metadata summarizes the footer.
func (r *Reader) Metadata() *Metadata {
	return newMetadata(r.NumRows(), r.schema)
}

// Scan delivers the rows selected by opts to fn in batches, in file order.
// Scanning stops at the first error returned by fn.
func (r *Reader) Scan(opts ScanOptions, fn func([]value.Record) error) error {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	total := r.NumRows()
	if opts.Offset >= total || opts.Limit == 0 {
		return nil
	}
	remaining := total - max(opts.Offset, 0)
	if opts.Limit > 0 && opts.Limit < remaining {
		remaining = opts.Limit
	}

	rows := parquet.NewReader(r.pqFile)
	defer func() { _ = rows.Close() }()

	if opts.Offset > 0 {
		if err := rows.SeekToRow(opts.Offset); err != nil {
			return errs.Wrap(err, errs.KindIO, "scan", "failed to seek")
		}
	}

	asm := newAssembler(r.schema)
	buf := make([]parquet.Row, batchSize)

	for remaining > 0 {
		want := int64(batchSize)
		if remaining < want {
			want = remaining
		}
		n, err := rows.ReadRows(buf[:want])
		if n > 0 {
			batch := make([]value.Record, n)
			for i := 0; i < n; i++ {
				batch[i] = asm.assemble(buf[i])
			}
			remaining -= int64(n)
			if ferr := fn(batch); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errs.Wrap(err, errs.KindIO, "scan", "failed to read rows")
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// ReadRows reads the window [offset, offset+limit) into memory. A negative
// limit reads to the end of the file.
func (r *Reader) ReadRows(offset, limit int64) ([]value.Record, error) {
	var out []value.Record
	err := r.Scan(ScanOptions{Offset: offset, Limit: limit}, func(batch []value.Record) error {
		out = append(out, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying file. It is safe to call Close multiple times.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
