package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
	"github.com/goliatone/go-vendor-portal/components/portal/web"
	"github.com/goliatone/go-vendor-portal/pkg/backend"
	"github.com/goliatone/go-vendor-portal/pkg/config"
	"github.com/goliatone/go-vendor-portal/pkg/logging"
	"github.com/goliatone/go-vendor-portal/pkg/metrics"
	"github.com/goliatone/go-vendor-portal/pkg/sessionstore"
)

type serveCmd struct {
	Config string `short:"c" type:"path" env:"VENDOR_PORTAL_CONFIG" help:"Path to a YAML configuration file."`
	Addr   string `help:"Listen address, overrides server.addr."`
	Demo   bool   `help:"Enable the admin/admin demo login."`
}

type backendClient interface {
	portal.Gateway
	portal.Authenticator
}

func (cmd *serveCmd) Run(ctx context.Context) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	if cmd.Demo {
		cfg.Session.DemoLogin = true
	}

	logger, flush, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		SeqURL: cfg.Log.SeqURL,
		Out:    os.Stderr,
	})
	if err != nil {
		return err
	}
	defer flush()

	client, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}
	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	telemetry, err := metrics.New(registry, logger)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	renderer, err := portal.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("vendorportal: templates: %w", err)
	}

	service := portal.NewService(portal.Options{
		Gateway: client,
		Catalog: catalog,
		Formatter: portal.NewFormatter(
			portal.WithLocale(cfg.Display.Locale),
			portal.WithCurrency(cfg.Display.CurrencyCode, cfg.Display.CurrencySymbol),
		),
		Charts: portal.NewChartRenderer(
			portal.WithChartCache(portal.NewChartCache(cfg.Charts.CacheTTL)),
			portal.WithChartTheme(cfg.Charts.Theme),
			portal.WithChartAssetsHost(cfg.Charts.AssetsHost),
		),
		Telemetry: telemetry,
		Activity:  portal.NewActivityRecorder(portal.NewActivityLog(500), logger),
		Logger:    logger,
		PageSize:  cfg.Display.PageSize,
		ToastTTL:  cfg.Display.ToastTTL,
	})
	gate := portal.NewGate(store, client,
		portal.WithSessionTTL(cfg.Session.TTL),
		portal.WithDemoLogin(cfg.Session.DemoLogin),
		portal.WithGateLogger(logger),
	)

	webCfg := web.Config[*fiber.App]{
		Service:      service,
		Gate:         gate,
		Pages:        portal.NewPages(renderer),
		Logger:       logger,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Server.CookieSecure,
		DemoLogin:    cfg.Session.DemoLogin,
		Routes:       web.RouteConfig{Metrics: cfg.Metrics.Path},
	}
	if cfg.Metrics.Enabled {
		webCfg.Metrics = metrics.Handler(registry)
	}
	server, err := web.NewServer(web.ServerConfig{
		AppName:      "vendorportal",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, webCfg)
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("vendor portal listening", "addr", cfg.Server.Addr, "demo_backend", cfg.DemoBackend(), "session_store", cfg.Session.Store)
		errs <- server.Serve(cfg.Server.Addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("vendorportal: shutdown: %w", err)
	}
	return nil
}

func newBackend(cfg config.Config, logger *slog.Logger) (backendClient, error) {
	if cfg.DemoBackend() {
		logger.Warn("no backend configured, serving demo data")
		return backend.NewMock(), nil
	}
	return backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	})
}

func newSessionStore(ctx context.Context, cfg config.Config) (portal.SessionStore, func(), error) {
	switch cfg.Session.Store {
	case "redis":
		store, closeFn, err := sessionstore.DialRedis(ctx, sessionstore.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = closeFn() }, nil
	case "memory", "":
		return sessionstore.NewMemory(sessionstore.WithMemorySize(cfg.Session.MemorySize)), func() {}, nil
	default:
		return nil, nil, errors.New("vendorportal: unknown session store " + cfg.Session.Store)
	}
}

func loadCatalog(path string) (*portal.Catalog, error) {
	if path == "" {
		return portal.DefaultCatalog()
	}
	doc, err := portal.ReadCatalog(path)
	if err != nil {
		return nil, err
	}
	return portal.NewCatalog(doc)
}
