package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/api"
	"github.com/alimponya/clinic-portal/internal/pkg/config"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend *api.Client
	router  http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		backend: api.NewClient(cfg.Backend.BaseURL, logger),
	}
	logger.Info("Backend API configured", zap.String("base_url", cfg.Backend.BaseURL))
	return s, nil
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// GetBackend returns the backend API client
func (s *Server) GetBackend() *api.Client {
	return s.backend
}

// GetLogger returns the logger instance
func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

// GetConfig returns the configuration
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}
