package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grachmannico95/oms-bulk-import/internal/config"
	"github.com/grachmannico95/oms-bulk-import/internal/handler"
	"github.com/grachmannico95/oms-bulk-import/internal/middleware"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

type Server struct {
	echo            *echo.Echo
	cfg             *config.Config
	logger          *logger.Logger
	jobHandler      *handler.JobHandler
	templateHandler *handler.TemplateHandler
	healthHandler   *handler.HealthHandler
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	jobHandler *handler.JobHandler,
	templateHandler *handler.TemplateHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Server{
		echo:            e,
		cfg:             cfg,
		logger:          log,
		jobHandler:      jobHandler,
		templateHandler: templateHandler,
		healthHandler:   healthHandler,
	}
}

func (s *Server) Start() error {
	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)

	if s.cfg.Metrics.Enabled {
		s.echo.GET(s.cfg.Metrics.Path, echo.WrapHandler(promhttp.Handler()))
	}

	s.echo.GET("/templates/:name", s.templateHandler.Download)
	s.echo.GET("/jobs/:id", s.jobHandler.Get)
}

func (s *Server) Handler() *echo.Echo {
	s.setupMiddleware()
	s.setupRoutes()
	return s.echo
}
