package web

import (
	"context"
	"errors"

	router "github.com/goliatone/go-router"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

const upgradeSession = "session"

// registerToastStream pushes toasts to the browser as they are queued. The
// upgrade bypasses group middleware, so the session is resolved before it.
func registerToastStream[T any](r router.Router[T], path string, h *handlers) {
	cfg := router.DefaultWebSocketConfig()
	cfg.OnPreUpgrade = func(c router.Context) (router.UpgradeData, error) {
		session, err := h.cfg.Gate.Resolve(c.Context(), c.Cookies(h.cfg.CookieName))
		if err != nil {
			return nil, portal.ErrUnauthenticated
		}
		return router.UpgradeData{upgradeSession: session}, nil
	}
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		raw, _ := ws.UpgradeData(upgradeSession)
		session, ok := raw.(portal.Session)
		if !ok {
			return ws.Close()
		}
		toasts := h.cfg.Service.Workspace(session).Toasts()
		events, cancel := toasts.Subscribe()
		defer cancel()
		err := pushToasts(ws.Context(), toasts.Active(), events, func(t portal.Toast) error {
			return ws.WriteJSON(t)
		})
		if closeErr := ws.Close(); err == nil {
			err = closeErr
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// pushToasts sends the pending toasts, then every new one until ctx is done
// or events is closed.
func pushToasts(ctx context.Context, pending []portal.Toast, events <-chan portal.Toast, send func(portal.Toast) error) error {
	for _, t := range pending {
		if err := send(t); err != nil {
			return err
		}
	}
	for {
		select {
		case t, ok := <-events:
			if !ok {
				return nil
			}
			if err := send(t); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
