package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/alderburg/Teste-sub001/internal/adapter/handler/http"
	"github.com/alderburg/Teste-sub001/internal/config"
	"github.com/alderburg/Teste-sub001/internal/infrastructure/metrics"
	"github.com/alderburg/Teste-sub001/internal/middleware/auth"
	"github.com/alderburg/Teste-sub001/pkg/logger"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, log *zap.Logger, flows *handlers.FlowHandler, m *metrics.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(m.Middleware())
	if len(cfg.Server.HTTP.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.HTTP.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
	}
	s.setupRoutes(flows, m)
	return s
}

func (s *Server) setupRoutes(flows *handlers.FlowHandler, m *metrics.Metrics) {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})
	s.echo.GET("/metrics", echo.WrapHandler(m.Handler()))

	jwtConfig := auth.JWTConfig{
		Secret:    s.config.JWT.Secret,
		Logger:    s.logger,
		SkipPaths: s.config.JWT.SkipPaths,
	}

	// Every flow route acts on behalf of the caller's account
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))
	flows.Register(v1)
}

// Handler exposes the router for in-process tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
