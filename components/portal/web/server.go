package web

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	router "github.com/goliatone/go-router"
)

// ServerConfig tunes the fiber app behind the go-router adapter.
type ServerConfig struct {
	AppName      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds a fiber-backed go-router server and mounts the portal on
// it. cfg.Router is replaced by the server's router.
func NewServer(sc ServerConfig, cfg Config[*fiber.App]) (router.Server[*fiber.App], error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if sc.AppName == "" {
		sc.AppName = "vendorportal"
	}
	server := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               sc.AppName,
			ReadTimeout:           sc.ReadTimeout,
			WriteTimeout:          sc.WriteTimeout,
			UnescapePath:          true,
			DisableStartupMessage: true,
			ErrorHandler:          router.DefaultFiberErrorHandler(router.DefaultFiberErrorHandlerConfig()),
		})
		app.Use(recover.New())
		app.Use(requestLogger(logger))
		return app
	})
	cfg.Router = server.Router().WithLogger(routerLogger{logger: logger})
	cfg.Logger = logger
	if err := Register(cfg); err != nil {
		return nil, err
	}
	return server, nil
}

// routerLogger adapts slog to go-router. go-router mixes printf formats with
// key/value pairs and logs route registration and redirects at info; those
// are demoted to debug.
type routerLogger struct {
	logger *slog.Logger
}

func (l routerLogger) Debug(format string, args ...any) { l.log(slog.LevelDebug, format, args) }
func (l routerLogger) Info(format string, args ...any)  { l.log(slog.LevelDebug, format, args) }
func (l routerLogger) Warn(format string, args ...any)  { l.log(slog.LevelWarn, format, args) }
func (l routerLogger) Error(format string, args ...any) { l.log(slog.LevelError, format, args) }

func (l routerLogger) log(level slog.Level, format string, args []any) {
	if strings.Contains(format, "%") {
		l.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
		return
	}
	l.logger.Log(context.Background(), level, format, args...)
}
