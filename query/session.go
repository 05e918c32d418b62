package query

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vegasq/parqsee/internal/errs"
	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

// Table is a scannable source of records. *reader.Reader implements it.
type Table interface {
	Schema() *reader.Schema
	NumRows() int64
	Scan(opts reader.ScanOptions, fn func([]value.Record) error) error
}

// ResultColumn describes one column of a query result.
type ResultColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// Result is the output of a query: column descriptors and record batches.
type Result struct {
	Columns []ResultColumn
	Batches [][]value.Record
}

// NumRows returns the total number of rows over all batches.
func (r *Result) NumRows() int {
	n := 0
	for _, b := range r.Batches {
		n += len(b)
	}
	return n
}

// Rows returns every row in batch order.
func (r *Result) Rows() []value.Record {
	rows := make([]value.Record, 0, r.NumRows())
	for _, b := range r.Batches {
		rows = append(rows, b...)
	}
	return rows
}

// Session executes SQL over a set of named tables. It is safe for
// concurrent use once tables are registered.
type Session struct {
	mu        sync.RWMutex
	tables    map[string]Table
	batchSize int
	registry  *FunctionRegistry
	logger    *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithBatchSize sets the number of rows per scan and result batch.
func WithBatchSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry replaces the scalar function registry.
func WithRegistry(r *FunctionRegistry) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.registry = r
		}
	}
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		tables:    make(map[string]Table),
		batchSize: reader.DefaultBatchSize,
		registry:  GetGlobalRegistry(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register makes table queryable under name. Names are case-insensitive.
func (s *Session) Register(name string, table Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[strings.ToLower(name)] = table
}

// Table returns the table registered under name.
func (s *Session) Table(name string) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[strings.ToLower(name)]
	return t, ok
}

// Query parses, plans and executes one SELECT statement.
func (s *Session) Query(sql string) (*Result, error) {
	start := time.Now()

	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	table, ok := s.Table(stmt.Table)
	if !ok {
		return nil, errs.New(errs.KindQueryPlan, "plan", "table %q not found", stmt.Table)
	}
	p, err := newPlan(stmt, table, s.registry)
	if err != nil {
		return nil, err
	}

	res, err := s.execute(p)
	if err != nil {
		return nil, err
	}

	if ce := s.logger.Check(zap.DebugLevel, "query executed"); ce != nil {
		ce.Write(
			zap.String("table", stmt.Table),
			zap.Bool("streaming", p.streaming()),
			zap.Int("rows", res.NumRows()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return res, nil
}
