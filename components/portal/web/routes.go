// Package web mounts the vendor portal pages and actions on a go-router router.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	router "github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/goliatone/go-router/middleware/requestid"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
	"github.com/goliatone/go-vendor-portal/components/portal/commands"
	"github.com/goliatone/go-vendor-portal/components/portal/queries"
)

// Cookie names.
const (
	DefaultCookieName = "vendor_portal_session"
	DefaultFlashName  = "vendor_portal_flash"
)

// SessionGate is the session surface the routes need.
type SessionGate interface {
	Login(ctx context.Context, creds portal.Credentials) (portal.Session, error)
	Logout(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) (portal.Session, error)
	RefreshProfile(ctx context.Context, session portal.Session) (portal.Session, error)
	Subscribe(fn func(portal.Session)) (cancel func())
}

// Config wires the portal service, session gate and pages into go-router.
type Config[T any] struct {
	Router       router.Router[T]
	Service      *portal.Service
	Gate         SessionGate
	Pages        *portal.Pages
	Logger       *slog.Logger
	CookieName   string
	CookieSecure bool
	DemoLogin    bool
	Metrics      http.Handler
	Routes       RouteConfig
}

// RouteConfig customizes the paths that are not referenced by the templates.
type RouteConfig struct {
	Metrics     string
	Health      string
	ToastStream string
}

// Register mounts the login, portal, toast stream and metrics routes.
// Workspaces are kept in step with the gate for the lifetime of the gate.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("web: router is required")
	}
	if cfg.Service == nil {
		return errors.New("web: portal service is required")
	}
	if cfg.Gate == nil {
		return errors.New("web: session gate is required")
	}
	if cfg.Pages == nil {
		return errors.New("web: pages are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	cfg.Routes = defaultRouteConfig(cfg.Routes)

	cfg.Gate.Subscribe(cfg.Service.SessionChanged)
	h := newHandlers(cfg)

	r := cfg.Router
	r.Use(requestid.New())

	r.Get(cfg.Routes.Health, router.WrapHandler(func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}))
	if cfg.Metrics != nil {
		r.Get(cfg.Routes.Metrics, router.HandlerFromHTTP(cfg.Metrics))
	}

	r.Get("/", router.WrapHandler(backToPortal))
	r.Get(pathLogin, h.loginPage)
	r.Post(pathLogin, h.login)
	r.Post("/logout", h.logout)

	group := r.Group(pathPortal)
	group.Use(requireSession(cfg.session()))
	group.Get("/", h.portalPage)
	group.Get("/section/:id", h.selectSection)
	group.Get("/table/search", h.search)
	group.Post("/table/sort/:key", h.sort)
	group.Post("/table/page/:n", h.page)
	group.Get("/table/export.xlsx", h.export)
	group.Get("/invoice/:id/pdf", h.downloadInvoice)
	group.Get("/toasts", h.listToasts)
	group.Post("/toasts/:id/dismiss", h.dismissToast)
	group.Post("/sidebar/toggle", h.toggleSidebar)
	group.Post("/nav/:id/toggle", h.toggleGroup)
	group.Post("/profile/refresh", h.refreshProfile)

	registerToastStream(group, cfg.Routes.ToastStream, h)
	return nil
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Metrics == "" {
		routes.Metrics = "/metrics"
	}
	if routes.Health == "" {
		routes.Health = "/healthz"
	}
	if routes.ToastStream == "" {
		routes.ToastStream = "/toasts/stream"
	}
	return routes
}

const (
	pathLogin  = "/login"
	pathPortal = "/portal"
)

// sessionConfig is the router-independent part of Config the handlers use.
type sessionConfig struct {
	Service      *portal.Service
	Gate         SessionGate
	Pages        *portal.Pages
	Logger       *slog.Logger
	CookieName   string
	CookieSecure bool
	DemoLogin    bool
}

func (cfg Config[T]) session() sessionConfig {
	return sessionConfig{
		Service:      cfg.Service,
		Gate:         cfg.Gate,
		Pages:        cfg.Pages,
		Logger:       cfg.Logger,
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		DemoLogin:    cfg.DemoLogin,
	}
}

type handlers struct {
	cfg   sessionConfig
	flash *flash.Flash

	signIn   *commands.LoginCommand
	signOut  *commands.LogoutCommand
	refresh  *commands.RefreshProfileCommand
	selector *commands.SelectSectionCommand
	table    *commands.UpdateTableCommand
	nav      *commands.ToggleNavigationCommand
	invoice  *commands.DownloadInvoiceCommand
	exporter *commands.ExportTableCommand
	dismiss  *commands.DismissToastCommand
	pages    *queries.PageQuery
	toasts   *queries.ToastsQuery
}

func newHandlers[T any](cfg Config[T]) *handlers {
	telemetry := cfg.Service.Telemetry()
	return &handlers{
		cfg:      cfg.session(),
		flash:    flash.New(flash.Config{Name: DefaultFlashName, Secure: cfg.CookieSecure}),
		signIn:   commands.NewLoginCommand(cfg.Gate, telemetry),
		signOut:  commands.NewLogoutCommand(cfg.Gate, telemetry),
		refresh:  commands.NewRefreshProfileCommand(cfg.Gate),
		selector: commands.NewSelectSectionCommand(cfg.Service),
		table:    commands.NewUpdateTableCommand(cfg.Service),
		nav:      commands.NewToggleNavigationCommand(cfg.Service),
		invoice:  commands.NewDownloadInvoiceCommand(cfg.Service),
		exporter: commands.NewExportTableCommand(cfg.Service),
		dismiss:  commands.NewDismissToastCommand(cfg.Service),
		pages:    queries.NewPageQuery(cfg.Service),
		toasts:   queries.NewToastsQuery(cfg.Service),
	}
}
