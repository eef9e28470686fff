// Package httpapi serves Prometheus metrics and on-demand liveness reports for a
// running supervisor.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/procrace/internal/liveness"
	"github.com/Paintersrp/procrace/internal/metrics"
)

const (
	defaultAddr            = "127.0.0.1:7664"
	defaultReadHeader      = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Reporter produces a liveness report on demand.
type Reporter interface {
	Poll(ctx context.Context) (liveness.Report, error)
}

// Config controls construction of the HTTP server.
type Config struct {
	Addr              string
	Reporter          Reporter
	Listener          net.Listener
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server wraps an http.Server exposing supervisor state.
type Server struct {
	reporter        Reporter
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

// NewServer constructs a Server with sane defaults.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	mux := http.NewServeMux()
	srv := &http.Server{
		Addr:              normalizeAddr(cfg.Addr),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	if srv.ReadHeaderTimeout == 0 {
		srv.ReadHeaderTimeout = defaultReadHeader
	}
	server := &Server{
		reporter:        cfg.Reporter,
		srv:             srv,
		listener:        cfg.Listener,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if server.shutdownTimeout == 0 {
		server.shutdownTimeout = defaultShutdownTimeout
	}
	server.registerRoutes(mux)
	return server, nil
}

// Run starts serving until the provided context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			_ = s.srv.Shutdown(shutdownCtx)
		case <-stop:
		}
	}()

	go func() {
		var err error
		if s.listener != nil {
			err = s.srv.Serve(s.listener)
		} else {
			err = s.srv.ListenAndServe()
		}
		errCh <- err
	}()

	err := <-errCh
	close(stop)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

// Handler exposes the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/v1/processes", s.handleProcesses)
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:    "method_not_allowed",
			Message: fmt.Sprintf("method %s not allowed", r.Method),
		})
		return
	}
	report, err := s.reporter.Poll(r.Context())
	if err != nil {
		status, code := classifyError(err)
		s.writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
		return
	}
	if report.Processes == nil {
		report.Processes = []liveness.Status{}
	}
	s.writeJSON(w, http.StatusOK, processesBody{
		Tracked:   len(report.Processes),
		Alive:     report.Alive(),
		Processes: report.Processes,
	})
}

type processesBody struct {
	Tracked   int               `json:"tracked"`
	Alive     int               `json:"alive"`
	Processes []liveness.Status `json:"processes"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func classifyError(err error) (int, string) {
	var enumErr *liveness.EnumerationError
	switch {
	case errors.Is(err, context.Canceled):
		return 499, "context_canceled"
	case errors.As(err, &enumErr):
		return http.StatusServiceUnavailable, "enumeration_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Listen binds addr, applying the same defaults as NewServer, so callers can
// surface bind errors before starting work.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", normalizeAddr(addr))
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", normalizeAddr(addr), err)
	}
	return ln, nil
}

func normalizeAddr(addr string) string {
	if strings.TrimSpace(addr) == "" {
		return defaultAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
