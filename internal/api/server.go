package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/config"
	"github.com/dreamer-zq/savekit/internal/savedata"
)

// Config holds API server settings
type Config struct {
	HTTP     HTTPConfig
	Security SecurityConfig
	Auth     config.AuthConfig
}

// HTTPConfig holds the listen address
type HTTPConfig struct {
	Host string
	Port int
}

// SecurityConfig holds TLS settings
type SecurityConfig struct {
	TLSEnabled bool
	CertFile   string
	KeyFile    string
}

// Server exposes a save service over HTTP
type Server struct {
	config   *Config
	saves    *savedata.Service
	gatherer prometheus.Gatherer
	auth     Authenticator
	logger   *zap.Logger

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a new API server. gatherer may be nil, in which case
// /metrics is not served.
func NewServer(cfg *Config, saves *savedata.Service, gatherer prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api config cannot be nil")
	}
	if saves == nil {
		return nil, errors.New("save service cannot be nil")
	}
	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT secret cannot be empty when authentication is enabled")
	}
	return &Server{
		config:   cfg,
		saves:    saves,
		gatherer: gatherer,
		auth:     NewAuthenticator(cfg.Auth, logger.Named("auth")),
		logger:   logger,
	}, nil
}

// Handler builds the gin router
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	s.setupHTTPRoutes(router)
	return router
}

// Start binds the listener and serves in the background
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.HTTP.Host, s.config.HTTP.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if s.config.Security.TLSEnabled {
			err = s.httpServer.ServeTLS(ln, s.config.Security.CertFile, s.config.Security.KeyFile)
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.logger.Info("API server started",
		zap.String("http_addr", ln.Addr().String()),
		zap.Bool("tls", s.config.Security.TLSEnabled),
		zap.Bool("auth", s.config.Auth.Enabled))
	return nil
}

// Addr returns the bound address, or nil before Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts the server down
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}
