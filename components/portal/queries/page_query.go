package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

type workspaces interface {
	Workspace(session portal.Session) *portal.Workspace
}

// PageInput selects the session and locale of a page render.
type PageInput struct {
	Session portal.Session
	Locale  string
	// DrainToasts hands queued toasts to this render only.
	DrainToasts bool
}

// PageQuery builds the render snapshot of a session's workspace.
type PageQuery struct {
	service workspaces
}

// NewPageQuery builds the query.
func NewPageQuery(service workspaces) *PageQuery {
	return &PageQuery{service: service}
}

var _ gocommand.Querier[PageInput, portal.PageView] = (*PageQuery)(nil)

// Query returns the page view.
func (q *PageQuery) Query(_ context.Context, input PageInput) (portal.PageView, error) {
	if !input.Session.IsAuthenticated() {
		return portal.PageView{}, portal.ErrUnauthenticated
	}
	ws := q.service.Workspace(input.Session)
	view, err := ws.View(input.Locale)
	if err != nil {
		return view, err
	}
	if input.DrainToasts {
		view.Toasts = ws.Toasts().Drain()
	}
	return view, nil
}

// ToastsInput selects the session whose toasts are listed.
type ToastsInput struct {
	Session portal.Session
	Drain   bool
}

// ToastsQuery lists the active notifications of a session.
type ToastsQuery struct {
	service workspaces
}

// NewToastsQuery builds the query.
func NewToastsQuery(service workspaces) *ToastsQuery {
	return &ToastsQuery{service: service}
}

var _ gocommand.Querier[ToastsInput, []portal.Toast] = (*ToastsQuery)(nil)

// Query returns the toasts, draining them when asked.
func (q *ToastsQuery) Query(_ context.Context, input ToastsInput) ([]portal.Toast, error) {
	if !input.Session.IsAuthenticated() {
		return nil, portal.ErrUnauthenticated
	}
	toasts := q.service.Workspace(input.Session).Toasts()
	if input.Drain {
		return toasts.Drain(), nil
	}
	return toasts.Active(), nil
}
