// Package service exposes the data-access operations used by a UI layer:
// paginated reads, counts, metadata, ad-hoc SQL, cache eviction and export.
//
// Sessions and metadata come from a shared *cache.Cache; exports read the
// source file directly.
package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/vegasq/parqsee/cache"
	"github.com/vegasq/parqsee/internal/metrics"
	"github.com/vegasq/parqsee/output"
	"github.com/vegasq/parqsee/query"
	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

// Operation names, used as the "op" metric label and in logs.
const (
	OpReadData   = "read_data"
	OpCountData  = "count_data"
	OpOpenFile   = "open_file"
	OpEvictCache = "evict_cache"
	OpExecuteSQL = "execute_sql"
	OpExportData = "export_data"
	OpQuery      = "query"
)

// Service runs requests against cached file sessions.
type Service struct {
	cache    *cache.Cache
	exporter *output.Exporter
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables operation timing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithExporter replaces the exporter.
func WithExporter(e *output.Exporter) Option {
	return func(s *Service) {
		if e != nil {
			s.exporter = e
		}
	}
}

// New creates a service over c.
func New(c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		cache:  c,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter == nil {
		s.exporter = output.NewExporter(output.WithLogger(s.logger), output.WithMetrics(s.metrics))
	}
	return s
}

// withSession runs fn with a session for path and releases it afterwards.
func (s *Service) withSession(path string, fn func(fs *cache.FileSession) error) error {
	fs, err := s.cache.GetOrCreateSession(path)
	if err != nil {
		return err
	}
	defer func() { _ = fs.Close() }()
	return fn(fs)
}

func (s *Service) done(op, path string, start time.Time, err error) {
	s.metrics.ObserveQuery(op, start)
	if err != nil {
		s.logger.Debug("operation failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
	}
}

// ReadData returns up to limit rows of path starting at offset, optionally
// filtered by a WHERE predicate.
func (s *Service) ReadData(path string, offset, limit int64, filter string) (rows []value.Object, err error) {
	defer func(start time.Time) { s.done(OpReadData, path, start, err) }(time.Now())

	err = s.withSession(path, func(fs *cache.FileSession) error {
		rows, err = query.ReadData(fs, offset, limit, filter)
		return err
	})
	return rows, err
}

// CountData counts the rows of path matching an optional filter.
func (s *Service) CountData(path, filter string) (n int64, err error) {
	defer func(start time.Time) { s.done(OpCountData, path, start, err) }(time.Now())

	err = s.withSession(path, func(fs *cache.FileSession) error {
		n, err = query.CountData(fs, filter)
		return err
	})
	return n, err
}

// OpenFile returns the metadata descriptor of path.
func (s *Service) OpenFile(path string) (meta *reader.Metadata, err error) {
	defer func(start time.Time) { s.done(OpOpenFile, path, start, err) }(time.Now())
	return s.cache.GetOrCreateMetadata(path)
}

// EvictCache drops the cached entries of path.
func (s *Service) EvictCache(path string) error {
	defer func(start time.Time) { s.done(OpEvictCache, path, start, nil) }(time.Now())
	s.cache.Evict(path)
	return nil
}

// ExecuteSQL runs sql against path, registered as table t.
func (s *Service) ExecuteSQL(path, sql string) (res *query.SQLResult, err error) {
	defer func(start time.Time) { s.done(OpExecuteSQL, path, start, err) }(time.Now())

	err = s.withSession(path, func(fs *cache.FileSession) error {
		res, err = query.ExecuteSQL(fs, sql)
		return err
	})
	return res, err
}

// Rows is ReadData without JSON materialization, for callers that format
// records themselves.
func (s *Service) Rows(path string, offset, limit int64, filter string) (res *query.Result, err error) {
	defer func(start time.Time) { s.done(OpReadData, path, start, err) }(time.Now())

	err = s.withSession(path, func(fs *cache.FileSession) error {
		res, err = query.Read(fs, offset, limit, filter)
		return err
	})
	return res, err
}

// Query is ExecuteSQL without JSON materialization.
func (s *Service) Query(path, sql string) (res *query.Result, err error) {
	defer func(start time.Time) { s.done(OpQuery, path, start, err) }(time.Now())

	err = s.withSession(path, func(fs *cache.FileSession) error {
		res, err = fs.Query(sql)
		return err
	})
	return res, err
}

// ExportData writes a row window of sourcePath to exportPath.
func (s *Service) ExportData(sourcePath, exportPath, format string, offset, limit *int64) (msg string, err error) {
	defer func(start time.Time) { s.done(OpExportData, sourcePath, start, err) }(time.Now())
	return s.exporter.Export(sourcePath, exportPath, format, offset, limit)
}
