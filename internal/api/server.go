//
//
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/visitor-flow/vfc/internal/config"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer *http.Server
	ingest     IngestPort
	hub        HubPort
	logger     *logrus.Logger
	upgrader   websocket.Upgrader

	server    config.ServerConfig
	ingress   config.IngressConfig
	heartbeat time.Duration
	version   string
	startTime time.Time
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, ingest IngestPort, hub HubPort, logger *logrus.Logger, version string) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		ingest:    ingest,
		hub:       hub,
		logger:    logger,
		server:    cfg.Server,
		ingress:   cfg.Ingress,
		heartbeat: cfg.Hub.HeartbeatInterval,
		version:   version,
		startTime: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the complete HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.cors(s.Router())
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.server.ReadTimeout,
		WriteTimeout: s.server.WriteTimeout,
		IdleTimeout:  s.server.IdleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
