// Package server exposes the workflow API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// Server represents the API web server
type Server struct {
	Logger log.Logger
	Config *cfg.Config
	echo   *echo.Echo
	port   int
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(logger log.Logger, config *cfg.Config, handler *Handler, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = config.App.DevelopmentMode
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	if config.App.DevelopmentMode {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/health"
			},
			LogStatus:  true,
			LogURI:     true,
			LogMethod:  true,
			LogLatency: true,
			LogError:   true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				rctx := c.Request().Context()
				if v.Error != nil {
					logger.Error(rctx, "%s %s -> %d in %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
					return nil
				}
				logger.Debug(rctx, "%s %s -> %d in %s", v.Method, v.URI, v.Status, v.Latency)
				return nil
			},
		}))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	handler.RegisterRoutes(e)

	return &Server{
		Logger: logger,
		Config: config,
		echo:   e,
		port:   port,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.Logger.Info(context.Background(), "Starting API server on port %d", s.port)
	if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.Logger.Info(ctx, "Shutting down API server")
	return s.echo.Shutdown(ctx)
}
