// Package http provides the HTTP transport for graphmemd.
//
// The MCP endpoint sits behind the auth middleware; the liveness probe and
// the Prometheus scrape endpoint are open.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/graphmemd/internal/auth"
)

// Server hosts the MCP endpoint plus the operational endpoints.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit throttles per client IP when enabled.
	RateLimit RateLimitConfig
}

// RateLimitConfig controls the per-IP token bucket.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// NewServer creates the HTTP server.
//
// mcpHandler serves the streamable MCP transport; it is mounted at /mcp
// behind the credential validator. validator must reject anonymous
// requests before they reach the handler.
func NewServer(cfg *Config, mcpHandler http.Handler, validator auth.Validator, logger *zap.Logger) (*Server, error) {
	if mcpHandler == nil {
		return nil, fmt.Errorf("mcp handler is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("credential validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9090}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	if cfg.RateLimit.Enabled {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit.RPS),
				Burst:     cfg.RateLimit.Burst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	s := &Server{
		echo:   e,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes(mcpHandler, validator)

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(mcpHandler http.Handler, validator auth.Validator) {
	// Liveness probe, deliberately unauthenticated. Reports process
	// liveness only; store reachability is the health_check tool's job.
	s.echo.GET("/livez", s.handleLivez)

	// Prometheus scrape endpoint
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// MCP endpoint. Every method goes through credential validation.
	s.echo.Any("/mcp", echo.WrapHandler(mcpHandler), auth.Middleware(validator, s.logger))
}

// LivezResponse is the response body for GET /livez.
type LivezResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleLivez(c echo.Context) error {
	return c.JSON(http.StatusOK, LivezResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
