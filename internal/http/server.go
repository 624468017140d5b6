// Package http provides the HTTP API backing the SWAN projects frontend.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/swan-cern/swanprojects/internal/kernels"
	"github.com/swan-cern/swanprojects/internal/project"
	"github.com/swan-cern/swanprojects/internal/stacks"
)

// KernelRunner regenerates kernel specs for a project.
type KernelRunner interface {
	Regenerate(ctx context.Context, projectName string) (*kernels.Result, error)
}

// StacksProvider serves the stacks catalogue.
type StacksProvider interface {
	Catalogue() []stacks.Stack
}

// Server provides the HTTP endpoints for swanprojectsd.
type Server struct {
	echo    *echo.Echo
	logger  *zap.Logger
	config  *Config
	store   *project.Store
	tracker *project.Tracker
	stacks  StacksProvider
	runner  KernelRunner
}

// Config holds HTTP server configuration.
type Config struct {
	Host      string
	Port      int
	BasePath  string
	StaticDir string
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(store *project.Store, tracker *project.Tracker, stacksSvc StacksProvider, runner KernelRunner, logger *zap.Logger, cfg *Config) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if stacksSvc == nil {
		return nil, fmt.Errorf("stacks provider cannot be nil")
	}
	if runner == nil {
		return nil, fmt.Errorf("kernel runner cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:     "localhost",
			Port:     8888,
			BasePath: "/swan",
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
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

	s := &Server{
		echo:    e,
		logger:  logger,
		config:  cfg,
		store:   store,
		tracker: tracker,
		stacks:  stacksSvc,
		runner:  runner,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	base := s.echo.Group(s.config.BasePath)

	api := base.Group("/api/v1")
	api.POST("/project/create", s.handleCreateProject)
	api.POST("/project/edit", s.handleEditProject)
	api.POST("/project/info", s.handleProjectInfo)
	api.GET("/stacks/info", s.handleStacksInfo)
	api.POST("/kernelspec/set", s.handleKernelSpecSet)

	if s.config.StaticDir != "" {
		base.Static("/static", s.config.StaticDir)
	}
}

// Echo exposes the underlying echo instance so the daemon can attach
// extra routes such as /metrics.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server",
		zap.String("addr", addr),
		zap.String("base_path", s.config.BasePath))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
