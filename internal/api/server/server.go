package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/remiblancher/qcert/internal/api/metrics"
	"github.com/remiblancher/qcert/internal/api/router"
	"github.com/remiblancher/qcert/internal/api/service"
	"github.com/remiblancher/qcert/internal/cert"
)

// Server serves one certificate over HTTP.
type Server struct {
	cfg     *Config
	version string
	log     zerolog.Logger
	srv     *http.Server
}

// New loads the certificate and builds the HTTP server.
func New(cfg *Config, version string, log zerolog.Logger, opts ...cert.Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := metrics.New()
	svc, err := service.NewCertService(cfg.CertFile, cfg.KeyFile, store, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	handler := router.New(&router.Config{
		Version: version,
		Service: svc,
		Metrics: store,
		Logger:  log,
	})

	return &Server{
		cfg:     cfg,
		version: version,
		log:     log,
		srv: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info().
		Str("version", s.version).
		Str("address", ln.Addr().String()).
		Str("cert", s.cfg.CertFile).
		Msg("server started")

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info().Msg("server stopped gracefully")
	return nil
}
