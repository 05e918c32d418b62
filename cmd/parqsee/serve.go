package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vegasq/parqsee/service"
	"github.com/vegasq/parqsee/value"
)

// maxRequestBytes bounds a single request line.
const maxRequestBytes = 16 << 20

type request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params params          `json:"params"`
}

type params struct {
	Path       string `json:"path"`
	Offset     *int64 `json:"offset"`
	Limit      *int64 `json:"limit"`
	Filter     string `json:"filter"`
	Query      string `json:"query"`
	ExportPath string `json:"export_path"`
	Format     string `json:"format"`
}

type response struct {
	ID     json.RawMessage `json:"id"`
	Result interface{}     `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// server answers newline-delimited JSON requests. Requests run
// concurrently; responses are written whole, one per line, in completion
// order.
type server struct {
	svc          *service.Service
	logger       *zap.Logger
	defaultLimit int64

	mu  sync.Mutex
	out io.Writer
	wg  sync.WaitGroup
}

func newServer(svc *service.Service, logger *zap.Logger, defaultLimit int64, out io.Writer) *server {
	return &server{
		svc:          svc,
		logger:       logger,
		defaultLimit: defaultLimit,
		out:          out,
	}
}

// serve reads requests from r until EOF and waits for in-flight requests
// before returning.
func (s *server) serve(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("invalid request", zap.Error(err))
			s.write(response{Error: fmt.Sprintf("invalid request: %v", err)})
			continue
		}

		s.wg.Add(1)
		go func(req request) {
			defer s.wg.Done()
			s.write(s.handle(req))
		}(req)
	}

	s.wg.Wait()
	return scanner.Err()
}

// handle answers one request. A panic becomes an error response for that
// request only.
func (s *server) handle(req request) (resp response) {
	resp = response{ID: req.ID}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request panicked",
				zap.String("method", req.Method),
				zap.Any("panic", r),
				zap.Stack("stack"))
			resp = response{ID: req.ID, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	result, err := s.dispatch(req.Method, req.Params)
	if err != nil {
		s.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Params.Path),
			zap.Error(err))
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	return resp
}

func (s *server) dispatch(method string, p params) (interface{}, error) {
	if p.Path == "" {
		return nil, errors.New("missing path")
	}

	switch method {
	case service.OpReadData:
		offset, limit := int64(0), s.defaultLimit
		if p.Offset != nil {
			offset = *p.Offset
		}
		if p.Limit != nil {
			limit = *p.Limit
		}
		if offset < 0 || limit < 0 {
			return nil, errors.New("offset and limit must be non-negative")
		}
		rows, err := s.svc.ReadData(p.Path, offset, limit, p.Filter)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []value.Object{}
		}
		return rows, nil
	case service.OpCountData:
		return s.svc.CountData(p.Path, p.Filter)
	case service.OpOpenFile:
		return s.svc.OpenFile(p.Path)
	case service.OpEvictCache:
		if err := s.svc.EvictCache(p.Path); err != nil {
			return nil, err
		}
		return map[string]bool{"evicted": true}, nil
	case service.OpExecuteSQL:
		return s.svc.ExecuteSQL(p.Path, p.Query)
	case service.OpExportData:
		return s.svc.ExportData(p.Path, p.ExportPath, p.Format, p.Offset, p.Limit)
	}
	return nil, fmt.Errorf("unknown method: %s", method)
}

func (s *server) write(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		data, _ = json.Marshal(response{ID: resp.ID, Error: fmt.Sprintf("failed to encode response: %v", err)})
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer JSON requests on stdin with JSON responses on stdout",
		Long: `serve reads one JSON request per line from stdin:

  {"id": 1, "method": "read_data", "params": {"path": "data.parquet", "offset": 0, "limit": 50}}

and writes one response per line to stdout, {"id", "result"} or
{"id", "error"}. Methods: read_data, count_data, open_file, evict_cache,
execute_sql, export_data.

Filters and queries are executed as given. Only serve a trusted local
client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr := a.cfg.Serve.MetricsAddr; addr != "" {
				stop := startMetricsServer(a, addr)
				defer stop()
			}

			a.logger.Info("serving requests on stdin")
			srv := newServer(a.svc, a.logger.Named("serve"), a.cfg.Read.DefaultLimit, cmd.OutOrStdout())
			return srv.serve(cmd.InOrStdin())
		},
	}
	cmd.Flags().String("metrics-addr", "", "Address for the Prometheus /metrics endpoint (disabled when empty)")
	cmd.Flags().Int64("default-limit", 100, "Row limit for read_data requests without one")
	return cmd
}

func startMetricsServer(a *app, addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("serving metrics", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
}
