// Package handlers serves the ROI modeling API over HTTP with gin, bridging
// the transport layer and the session service.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/auth"
	"github.com/gartstein/roimodeling/internal/roimodel/metrics"
)

// Server wraps the HTTP server running the gin router.
type Server struct {
	httpServer   *http.Server
	logger       *zap.Logger
	httpEndpoint string
}

// NewServer constructs a Server listening on port.
func NewServer(port int, handler http.Handler, logger *zap.Logger) *Server {
	endpoint := fmt.Sprintf(":%d", port)
	return &Server{
		httpServer: &http.Server{
			Addr:              endpoint,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:       logger.Named("http_server"),
		httpEndpoint: endpoint,
	}
}

// Start serves until Stop is called; it returns nil after a graceful stop.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.logger.Info("Server stopped")
}

// NewRouter mounts the API under /api/v1 behind JWT auth, plus the
// unauthenticated health and metrics endpoints.
func NewRouter(h *Handler, jwtSecret string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), metrics.Middleware())

	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1", auth.Middleware(jwtSecret))
	h.Register(api)
	return router
}
