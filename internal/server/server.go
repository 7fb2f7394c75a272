// Package server serves the dashboard over HTTP, re-running the report
// pipeline for every request against cached datasets.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/KaramelBytes/bikedash/internal/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Addr     string
	DayPath  string
	HourPath string
	// Params.Range is ignored; each request supplies its own.
	Params report.Params
	Charts report.ChartOptions
}

// Server is the dashboard HTTP server.
type Server struct {
	opts    Options
	cache   *dataset.Cache
	metrics *Metrics
	logger  *zap.Logger
	handler http.Handler
}

// New wires a server around cache. The cache reports lookups to the
// server's metrics.
func New(opts Options, cache *dataset.Cache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{opts: opts, cache: cache, metrics: NewMetrics(), logger: logger}
	cache.SetObserver(s.metrics)

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.instrument("index", http.HandlerFunc(s.handleIndex)))
	mux.Handle("GET /api/report", s.instrument("api_report", http.HandlerFunc(s.handleReport)))
	mux.Handle("GET /healthz", s.instrument("healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	s.handler = mux
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		took := time.Since(start)
		s.metrics.observeRequest(route, rec.code, took)
		s.logger.Debug("request",
			zap.String("route", route),
			zap.String("query", r.URL.RawQuery),
			zap.Int("code", rec.code),
			zap.Duration("took", took),
		)
	})
}

// build loads the datasets and runs the pipeline for the request's range.
// The returned status is the HTTP code to use on error.
func (s *Server) build(r *http.Request) (*report.Report, int, error) {
	ds, err := s.cache.Load(r.Context(), s.opts.DayPath, s.opts.HourPath)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	span, ok := dataset.Span(ds.Days)
	if !ok {
		return nil, http.StatusInternalServerError, report.ErrNoDays
	}
	q := r.URL.Query()
	rng, err := dataset.ResolveRange(q.Get("start"), q.Get("end"), span)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	params := s.opts.Params
	params.Range = rng

	start := time.Now()
	rep, err := report.Build(ds, params)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	s.metrics.observeBuild(time.Since(start), rep.SegmentErr != nil)
	return rep, http.StatusOK, nil
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error("report failed", zap.Error(err))
	}
	http.Error(w, err.Error(), code)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rep, code, err := s.build(r)
	if err != nil {
		s.fail(w, code, err)
		return
	}
	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, rep, report.HTMLOptions{Charts: s.opts.Charts, Logger: s.logger}); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, code, err := s.build(r)
	if err != nil {
		s.fail(w, code, err)
		return
	}
	var buf bytes.Buffer
	if err := report.RenderJSON(&buf, rep); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
