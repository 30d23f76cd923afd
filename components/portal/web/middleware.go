package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

const localSession = "portal.session"

// requireSession resolves the session cookie and stores the session in the
// request locals. Anonymous page requests are sent to the login form, JSON
// requests get 401.
func requireSession(cfg sessionConfig) router.MiddlewareFunc {
	return func(router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			id := c.Cookies(cfg.CookieName)
			session, err := cfg.Gate.Resolve(c.Context(), id)
			if err != nil {
				if !errors.Is(err, portal.ErrUnauthenticated) {
					cfg.Logger.ErrorContext(c.Context(), "session resolve failed", "error", err)
				}
				if id != "" {
					clearSessionCookie(c, cfg)
				}
				if wantsJSON(c) {
					return respondError(c, http.StatusUnauthorized, portal.ErrUnauthenticated)
				}
				return c.Redirect(pathLogin, http.StatusSeeOther)
			}
			c.Locals(localSession, session)
			return c.Next()
		}
	}
}

func sessionFrom(c router.Context) portal.Session {
	session, _ := c.Locals(localSession).(portal.Session)
	return session
}

// requestLogger runs at the fiber layer so unmatched paths are logged too.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if rid := c.GetRespHeader(router.XRequestID); rid != "" {
			attrs = append(attrs, "request_id", rid)
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.UserContext(), level, "http request", attrs...)
		return err
	}
}

func setSessionCookie(c router.Context, cfg sessionConfig, session portal.Session) {
	c.Cookie(&router.Cookie{
		Name:     cfg.CookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c router.Context, cfg sessionConfig) {
	c.Cookie(&router.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func wantsJSON(c router.Context) bool {
	return strings.HasSuffix(c.Path(), "/toasts") || strings.Contains(c.Header("Accept"), "application/json")
}

func respondError(c router.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func inferLocale(c router.Context) string {
	if locale, ok := c.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(c.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return parseAcceptLanguage(c.Header("Accept-Language"))
}

func parseAcceptLanguage(header string) string {
	for token := range strings.SplitSeq(header, ",") {
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token = strings.TrimSpace(token); token != "" && token != "*" {
			return strings.ToLower(token)
		}
	}
	return ""
}
