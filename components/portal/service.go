package portal

import (
	"log/slog"
	"sync"
	"time"
)

// Options configures the portal Service. Collaborators are interfaces so the
// backend client, telemetry and activity sinks can be swapped freely.
type Options struct {
	Gateway   Gateway
	Catalog   *Catalog
	Formatter *Formatter
	Charts    *ChartRenderer
	Telemetry Telemetry
	Activity  *ActivityRecorder
	Logger    *slog.Logger
	PageSize  int
	ToastTTL  time.Duration
}

// Service owns the per-session workspaces.
type Service struct {
	opts Options
	now  func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = MustDefaultCatalog()
	}
	if opts.Formatter == nil {
		opts.Formatter = NewFormatter()
	}
	if opts.Charts == nil {
		opts.Charts = NewChartRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Activity == nil {
		opts.Activity = NewActivityRecorder(nil, opts.Logger)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.ToastTTL <= 0 {
		opts.ToastTTL = DefaultToastTTL
	}
	opts.Telemetry = telemetryOrNoop(opts.Telemetry)
	return &Service{
		opts:       opts,
		now:        time.Now,
		workspaces: map[string]*Workspace{},
	}
}

// Catalog returns the section catalog.
func (s *Service) Catalog() *Catalog {
	return s.opts.Catalog
}

// Formatter returns the cell formatter.
func (s *Service) Formatter() *Formatter {
	return s.opts.Formatter
}

// Activity returns the activity recorder.
func (s *Service) Activity() *ActivityRecorder {
	return s.opts.Activity
}

// Telemetry returns the telemetry sink.
func (s *Service) Telemetry() Telemetry {
	return s.opts.Telemetry
}

// Workspace returns the workspace of session, creating it on first use.
// Workspaces of expired sessions are dropped on the way.
func (s *Service) Workspace(session Session) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, ws := range s.workspaces {
		if id != session.ID && ws.expired(now) {
			delete(s.workspaces, id)
		}
	}
	if ws, ok := s.workspaces[session.ID]; ok {
		ws.setSession(session)
		return ws
	}
	ws := newWorkspace(s, session)
	s.workspaces[session.ID] = ws
	return ws
}

// Lookup returns the existing workspace of sessionID.
func (s *Service) Lookup(sessionID string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[sessionID]
	return ws, ok
}

// Release drops the workspace of sessionID.
func (s *Service) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, sessionID)
}

// SessionChanged keeps workspaces in step with the session gate: signed-out
// sessions are released, refreshed ones update their snapshot.
func (s *Service) SessionChanged(session Session) {
	if !session.IsAuthenticated() {
		s.Release(session.ID)
		return
	}
	if ws, ok := s.Lookup(session.ID); ok {
		ws.setSession(session)
	}
}
