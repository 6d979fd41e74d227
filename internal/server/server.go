package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/user-service/internal/api"
	"github.com/elskow/user-service/internal/api/docs"
	"github.com/elskow/user-service/internal/auth"
	"github.com/elskow/user-service/internal/config"
)

type Server struct {
	config         *config.AppConfig
	log            *zap.Logger
	app            *fiber.App
	authHandler    *auth.Handler
	authMiddleware *auth.AuthMiddleware
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	Registry       *prometheus.Registry
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// NewRegistry returns the prometheus registry served on the metrics path,
// preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewServer(p Params) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "user-service",
		ReadTimeout:           p.Config.Server.ReadTimeout,
		WriteTimeout:          p.Config.Server.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(p.Logger),
	})

	app.Use(recover.New())
	app.Use(requestLogger(p.Logger))

	app.Get(api.HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if p.Config.Metrics.Enabled {
		app.Get(p.Config.Metrics.Path, adaptor.HTTPHandler(
			promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}),
		))
	}

	basePath := p.Config.Server.BasePath
	if basePath == "" {
		basePath = api.AccountsBasePath
	}
	p.AuthHandler.RegisterRoutes(app.Group(basePath), p.AuthMiddleware)

	docs.SwaggerInfo.BasePath = basePath
	app.Get(api.DocsPath+"/*", swagger.HandlerDefault)

	return &Server{
		config:         p.Config,
		log:            p.Logger,
		app:            app,
		authHandler:    p.AuthHandler,
		authMiddleware: p.AuthMiddleware,
	}
}

// App exposes the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)

	s.log.Info("Starting HTTP server",
		zap.String("address", addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("base_path", config.Server.BasePath)
		enc.AddString("database_driver", config.Database.Driver)
		enc.AddString("mail_driver", config.Mail.Driver)
		enc.AddBool("metrics_enabled", config.Metrics.Enabled)
		return nil
	})
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler answers errors that escaped the handlers (unknown routes,
// panics, body limits) with the same error body the account handlers use.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		kind := auth.KindDependency
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
			if code < fiber.StatusInternalServerError {
				kind = auth.KindValidation
			}
			if code == fiber.StatusNotFound {
				kind = auth.KindNotFound
			}
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{"kind": kind, "message": message},
		})
	}
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}
