package output

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/internal/metrics"
	"github.com/vegasq/parqsee/reader"
)

// Exporter writes row windows of parquet files to CSV or JSON files.
type Exporter struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithLogger sets the exporter logger.
func WithLogger(l *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics enables export row counting.
func WithMetrics(m *metrics.Metrics) ExporterOption {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// NewExporter creates an exporter.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the rows [offset, offset+limit) of sourcePath to
// exportPath. See Exporter.Export.
func Export(sourcePath, exportPath, format string, offset, limit *int64) (string, error) {
	return NewExporter().Export(sourcePath, exportPath, format, offset, limit)
}

// Export writes the rows [offset, offset+limit) of sourcePath to exportPath
// as csv or json. A nil offset starts at the first row and a nil limit runs
// to the end of the file. The window is clipped to the file.
//
// The format is checked before anything is opened or created.
func (e *Exporter) Export(sourcePath, exportPath, format string, offset, limit *int64) (string, error) {
	name := strings.ToLower(format)
	if name != FormatCSV && name != FormatJSON {
		return "", errs.New(errs.KindUnsupportedFormat, "export", "unsupported export format: %s", format)
	}
	format = name

	r, err := reader.NewReader(sourcePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	total := r.NumRows()
	start := int64(0)
	if offset != nil {
		start = min(max(*offset, 0), total)
	}
	count := total - start
	if limit != nil {
		count = min(max(*limit, 0), count)
	}

	rows, err := r.ReadRows(start, count)
	if err != nil {
		return "", err
	}

	f, err := os.Create(exportPath)
	if err != nil {
		return "", errs.Wrap(err, errs.KindIO, "export", "failed to create export file")
	}

	var formatter Formatter
	if format == FormatCSV {
		formatter = NewCSVFormatter(f, WithBOM())
	} else {
		formatter = NewJSONFormatter(f)
	}
	if err := formatter.Format(r.Metadata().ColumnNames(), rows); err != nil {
		_ = f.Close()
		return "", errs.Wrap(err, errs.KindIO, "export", "failed to write export file")
	}
	if err := f.Close(); err != nil {
		return "", errs.Wrap(err, errs.KindIO, "export", "failed to close export file")
	}

	e.metrics.Exported(format, len(rows))
	e.logger.Info("export finished",
		zap.String("source", sourcePath),
		zap.String("destination", exportPath),
		zap.String("format", format),
		zap.Int("rows", len(rows)))

	return fmt.Sprintf("Successfully exported %d rows to %s", len(rows), exportPath), nil
}
