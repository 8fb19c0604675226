package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/promptstream/pkg/observability"
	"github.com/rhuss/promptstream/pkg/transport"
)

// DefaultRoute is the pattern the completion handler is mounted on.
const DefaultRoute = "POST /api/completion"

// Server wraps an http.Server with the completion handler and manages
// the full lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	inflight   *transport.InFlightRegistry
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	Route           string
	MaxBodySize     int64
	StreamData      any
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string // empty disables the metrics endpoint
	Logger          *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		Route:           DefaultRoute,
		MaxBodySize:     10 << 20, // 10 MB
		StreamData:      DefaultStreamData,
		ReadTimeout:     30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithRoute sets the ServeMux pattern for the completion handler.
func WithRoute(pattern string) ServerOption {
	return func(s *Server) { s.config.Route = pattern }
}

// WithMaxBodySize sets the maximum request body size.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithStreamData sets the side-channel value appended to each response.
// Passing nil disables the side channel.
func WithStreamData(v any) ServerOption {
	return func(s *Server) { s.config.StreamData = v }
}

// WithTimeouts sets the read and write timeouts. A zero write timeout
// lets long completions stream without a deadline.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.config.ReadTimeout = read
		s.config.WriteTimeout = write
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// WithMetrics exposes Prometheus metrics on path.
func WithMetrics(path string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = path }
}

// NewServer creates a server that streams completions from streamer.
// Default middleware (recovery, request ID, logging, metrics) is applied
// to every route; the completion route is additionally marked dynamic.
func NewServer(streamer TextStreamer, opts ...ServerOption) *Server {
	s := &Server{
		config:   DefaultServerConfig(),
		logger:   slog.Default(),
		inflight: transport.NewInFlightRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}

	completion := NewCompletionHandler(streamer, HandlerConfig{
		MaxBodySize: s.config.MaxBodySize,
		StreamData:  s.config.StreamData,
	}, s.inflight, s.logger)

	mux := http.NewServeMux()
	mux.Handle(s.config.Route, transport.Dynamic()(completion))
	mux.HandleFunc("GET /healthz", handleHealthz)
	if s.config.MetricsPath != "" {
		mux.Handle("GET "+s.config.MetricsPath, promhttp.Handler())
	}

	s.handler = transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(s.logger),
		observability.MetricsMiddleware,
	)(mux)

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s
}

// Handler returns the fully wrapped http.Handler. Use this to test with
// httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down,
// waiting for in-flight streams to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

// ServeOn starts the server on the given listener. Used for testing.
func (s *Server) ServeOn(ln net.Listener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("route", s.config.Route),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context. Streams
// still running when ctx expires are cancelled and their connections closed.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if n := s.inflight.CancelAll(); n > 0 {
		s.logger.Warn("cancelled in-flight streams", slog.Int("count", n))
	}
	if cerr := s.httpServer.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}
