// Package cache memoizes query sessions and metadata descriptors per file
// path.
//
// # Basic Usage
//
//	c := cache.New(cache.WithLogger(logger))
//	defer c.Close()
//
//	fs, err := c.GetOrCreateSession("data.parquet")
//	if err != nil {
//	    return err
//	}
//	defer fs.Close()
//
//	rows, err := query.ReadData(fs, 0, 100, "")
//
// Every returned *FileSession is a counted reference and must be closed.
// The underlying file closes when the cache and every caller have released
// their references, so Evict never invalidates a handle already in use.
//
// Lookups and inserts lock the maps; opening files and building metadata
// run unlocked. Two concurrent cold lookups of one path may both build, in
// which case the last insert wins.
package cache

import (
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vegasq/parqsee/internal/metrics"
	"github.com/vegasq/parqsee/query"
	"github.com/vegasq/parqsee/reader"
)

// Source is an opened file that can be registered in a session.
type Source interface {
	query.Table
	io.Closer
}

// Opener opens the file at path.
type Opener func(path string) (Source, error)

// MetadataBuilder computes the descriptor of the file at path.
type MetadataBuilder func(path string) (*reader.Metadata, error)

// OpenReader is the default Opener.
func OpenReader(path string) (Source, error) {
	r, err := reader.NewReader(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Cache holds one session and one metadata descriptor per path.
type Cache struct {
	sessionsMu sync.Mutex
	sessions   map[string]*FileSession

	metadataMu sync.Mutex
	metadata   map[string]*reader.Metadata

	open          Opener
	buildMetadata MetadataBuilder
	sessionOpts   []query.SessionOption
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithOpener replaces the file opener.
func WithOpener(open Opener) Option {
	return func(c *Cache) {
		if open != nil {
			c.open = open
		}
	}
}

// WithMetadataBuilder replaces the metadata builder.
func WithMetadataBuilder(build MetadataBuilder) Option {
	return func(c *Cache) {
		if build != nil {
			c.buildMetadata = build
		}
	}
}

// WithSessionOptions sets the options of every new query session.
func WithSessionOptions(opts ...query.SessionOption) Option {
	return func(c *Cache) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// WithLogger sets the cache logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		sessions:      make(map[string]*FileSession),
		metadata:      make(map[string]*reader.Metadata),
		open:          OpenReader,
		buildMetadata: reader.BuildMetadata,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreateSession returns a session for path with the file registered as
// query.TableName, opening the file on a miss. The caller must Close the
// returned handle.
func (c *Cache) GetOrCreateSession(path string) (*FileSession, error) {
	c.sessionsMu.Lock()
	fs, ok := c.sessions[path]
	if ok {
		fs = fs.Clone()
	}
	c.sessionsMu.Unlock()

	if ok {
		c.metrics.Hit(metrics.KindSession)
		c.logger.Debug("session cache hit", zap.String("path", path))
		return fs, nil
	}
	c.metrics.Miss(metrics.KindSession)

	src, err := c.open(path)
	if err != nil {
		return nil, err
	}
	session := query.NewSession(c.sessionOpts...)
	session.Register(query.TableName, src)
	fs = newFileSession(path, session, src)
	c.metrics.Built()

	handle := fs.Clone()

	c.sessionsMu.Lock()
	displaced := c.sessions[path]
	c.sessions[path] = fs
	c.sessionsMu.Unlock()

	if displaced != nil {
		c.logger.Debug("session cache entry replaced", zap.String("path", path))
		_ = displaced.Close()
	}
	c.logger.Debug("session created", zap.String("path", path), zap.Int64("rows", src.NumRows()))
	return handle, nil
}

// GetOrCreateMetadata returns the metadata descriptor for path, building it
// on a miss.
func (c *Cache) GetOrCreateMetadata(path string) (*reader.Metadata, error) {
	c.metadataMu.Lock()
	meta, ok := c.metadata[path]
	c.metadataMu.Unlock()

	if ok {
		c.metrics.Hit(metrics.KindMetadata)
		c.logger.Debug("metadata cache hit", zap.String("path", path))
		return meta, nil
	}
	c.metrics.Miss(metrics.KindMetadata)

	meta, err := c.buildMetadata(path)
	if err != nil {
		return nil, err
	}

	c.metadataMu.Lock()
	c.metadata[path] = meta
	c.metadataMu.Unlock()

	c.logger.Debug("metadata built",
		zap.String("path", path),
		zap.Int64("rows", meta.NumRows),
		zap.Int("columns", meta.NumColumns))
	return meta, nil
}

// Evict drops both entries of path. Handles held by callers stay usable.
func (c *Cache) Evict(path string) {
	c.sessionsMu.Lock()
	fs, hadSession := c.sessions[path]
	delete(c.sessions, path)
	c.sessionsMu.Unlock()

	c.metadataMu.Lock()
	_, hadMetadata := c.metadata[path]
	delete(c.metadata, path)
	c.metadataMu.Unlock()

	if hadSession {
		c.metrics.Evicted(metrics.KindSession)
		if err := fs.Close(); err != nil {
			c.logger.Warn("failed to close evicted session", zap.String("path", path), zap.Error(err))
		}
	}
	if hadMetadata {
		c.metrics.Evicted(metrics.KindMetadata)
	}
	if hadSession || hadMetadata {
		c.logger.Debug("cache entries evicted", zap.String("path", path))
	}
}

// Len returns the number of cached sessions and metadata descriptors.
func (c *Cache) Len() (sessions, metadata int) {
	c.sessionsMu.Lock()
	sessions = len(c.sessions)
	c.sessionsMu.Unlock()

	c.metadataMu.Lock()
	metadata = len(c.metadata)
	c.metadataMu.Unlock()
	return sessions, metadata
}

// Close releases every cached entry.
func (c *Cache) Close() error {
	c.sessionsMu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*FileSession)
	c.sessionsMu.Unlock()

	c.metadataMu.Lock()
	c.metadata = make(map[string]*reader.Metadata)
	c.metadataMu.Unlock()

	var firstErr error
	for _, fs := range sessions {
		if err := fs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// sharedSource counts the references to one opened file.
type sharedSource struct {
	src  Source
	refs atomic.Int64
}

func (s *sharedSource) release() error {
	if s.refs.Add(-1) == 0 {
		return s.src.Close()
	}
	return nil
}

// FileSession is a counted reference to a query session over one file.
type FileSession struct {
	path    string
	session *query.Session
	shared  *sharedSource
	closed  atomic.Bool
}

func newFileSession(path string, session *query.Session, src Source) *FileSession {
	shared := &sharedSource{src: src}
	shared.refs.Store(1)
	return &FileSession{path: path, session: session, shared: shared}
}

// Path returns the file path of the session.
func (fs *FileSession) Path() string {
	return fs.path
}

// Session returns the underlying query session.
func (fs *FileSession) Session() *query.Session {
	return fs.session
}

// Query runs sql against the session.
func (fs *FileSession) Query(sql string) (*query.Result, error) {
	return fs.session.Query(sql)
}

// Clone returns a new reference to the same session.
func (fs *FileSession) Clone() *FileSession {
	fs.shared.refs.Add(1)
	return &FileSession{path: fs.path, session: fs.session, shared: fs.shared}
}

// Close releases this reference. The file closes with the last one.
// Closing twice is a no-op.
func (fs *FileSession) Close() error {
	if !fs.closed.CompareAndSwap(false, true) {
		return nil
	}
	return fs.shared.release()
}
