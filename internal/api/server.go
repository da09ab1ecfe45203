// Package api exposes the alert queries over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/config"
	"github.com/t77yq/alert-dashboard/internal/monitor"
	"github.com/t77yq/alert-dashboard/internal/query"
)

// Server serves the dashboard API
type Server struct {
	logger   *zap.Logger
	config   *config.Config
	engine   *query.Engine
	health   *monitor.HealthChecker
	auth     *TokenValidator
	gatherer prometheus.Gatherer
	router   *gin.Engine
}

// NewServer wires routes and middleware. A nil auth disables token checks.
func NewServer(
	cfg *config.Config,
	engine *query.Engine,
	health *monitor.HealthChecker,
	auth *TokenValidator,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	gin.SetMode(cfg.Server.Mode)

	s := &Server{
		logger:   logger.Named("api"),
		config:   cfg,
		engine:   engine,
		health:   health,
		auth:     auth,
		gatherer: gatherer,
		router:   gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestID(), s.accessLog(), s.recovery(), securityHeaders())
	if mw := corsMiddleware(s.config.CORS); mw != nil {
		r.Use(mw)
	}
	r.Use(observe())
	r.NoRoute(s.handleNoRoute)

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	alerts := r.Group("/alerts")
	if s.auth != nil {
		alerts.Use(s.authenticate())
	} else {
		s.logger.Warn("Authentication disabled, /alerts is open")
	}
	alerts.GET("", s.handleListAlerts)
	alerts.GET("/subjects", s.handleSubjects)
	alerts.GET("/numbers-by-months", s.handleMonthlyCounts)
	alerts.GET("/numbers-by-months/:months", s.handleMonthlyCounts)
	alerts.GET("/:id", s.handleGetAlert)
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured port and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
