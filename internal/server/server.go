// Package server is the resolver backend behind `yijing serve`. It answers
// POST /api/chat with a hexagram reading or a persona reply and reports
// its health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"yijing/internal/config"
	"yijing/internal/divination"
	"yijing/internal/interpret"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// maxRequestBytes caps a chat request body.
const maxRequestBytes = 64 << 10

// Config wires a Server. Interpreter defaults to the offline interpreter
// and Generator to a crypto-seeded one.
type Config struct {
	Server      config.ServerConfig
	Interpreter interpret.Interpreter
	Generator   divination.Generator
	Logger      *zap.Logger
	Now         func() time.Time
}

// Server serves the resolver API.
type Server struct {
	interp  interpret.Interpreter
	gen     divination.Generator
	limiter *clientLimiter
	metrics *metrics
	logger  *zap.Logger
	now     func() time.Time

	handler    http.Handler
	httpServer *http.Server
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	s := &Server{
		interp:  cfg.Interpreter,
		gen:     cfg.Generator,
		metrics: newMetrics(),
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if s.interp == nil {
		s.interp = interpret.Offline{}
	}
	if s.gen == nil {
		gen, err := divination.NewSeededGenerator()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.gen = gen
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	rl := cfg.Server.RateLimit
	s.limiter = newClientLimiter(rl.RPS, rl.Burst, rl.GetIdleTTL())

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", s.instrument("chat", s.rateLimit(http.HandlerFunc(s.handleChat))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	if cfg.Server.Metrics {
		mux.Handle("GET /metrics", s.metrics.handler())
	}
	s.handler = mux

	s.httpServer = &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           mux,
		ReadTimeout:       cfg.Server.GetReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.GetWriteTimeout(),
	}
	return s, nil
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("resolver listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("llm", s.interp.Enabled()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("resolver stopped")
		return nil
	})
	return g.Wait()
}
