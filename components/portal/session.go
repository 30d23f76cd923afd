package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL bounds the lifetime of a signed-in session.
	DefaultSessionTTL = 8 * time.Hour
	// CustomerIDWidth is the zero-padded width of backend customer ids.
	CustomerIDWidth = 10

	demoUser       = "admin"
	demoPassword   = "admin"
	demoCustomerID = "0000001234"
)

var (
	// ErrSessionNotFound is returned by stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("portal: session not found")
	// ErrMissingCredentials is returned when the login form is incomplete.
	ErrMissingCredentials = errors.New("portal: please enter both vendor ID and password")
)

// Session is an immutable snapshot of one signed-in vendor.
type Session struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	Authenticated bool      `json:"authenticated"`
	Vendor        *Vendor   `json:"vendor,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsAuthenticated reports whether the session is signed in and unexpired.
func (s Session) IsAuthenticated() bool {
	return s.Authenticated && s.CustomerID != "" && (s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt))
}

// CurrentSubjectID returns the customer id of the session.
func (s Session) CurrentSubjectID() string {
	return s.CustomerID
}

// DisplayName returns the vendor name, or the customer id before the profile loads.
func (s Session) DisplayName() string {
	if s.Vendor != nil && s.Vendor.Name != "" {
		return s.Vendor.Name
	}
	return s.CustomerID
}

// SessionStore persists sessions for their TTL.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator verifies credentials and loads vendor profiles.
type Authenticator interface {
	Login(ctx context.Context, vendorID, password string) (customerID string, err error)
	Profile(ctx context.Context, customerID string) (Vendor, error)
}

// Credentials is the login form payload.
type Credentials struct {
	VendorID string `form:"vendorId" json:"vendorId" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Gate signs vendors in and out and resolves sessions for the route guard.
type Gate struct {
	store    SessionStore
	auth     Authenticator
	validate *validator.Validate
	logger   *slog.Logger
	ttl      time.Duration
	demo     bool
	now      func() time.Time

	mu   sync.RWMutex
	subs map[int]func(Session)
	next int
}

// GateOption customizes a Gate.
type GateOption func(*Gate)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) GateOption {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithDemoLogin accepts admin/admin without calling the backend.
func WithDemoLogin(enabled bool) GateOption {
	return func(g *Gate) {
		g.demo = enabled
	}
}

// WithGateLogger sets the logger used for profile load failures.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGateClock injects the clock used for session expiry.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate builds a session gate over store and auth.
func NewGate(store SessionStore, auth Authenticator, opts ...GateOption) *Gate {
	g := &Gate{
		store:    store,
		auth:     auth,
		validate: validator.New(),
		logger:   discardLogger(),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		subs:     map[int]func(Session){},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login validates creds, authenticates against the backend (or the demo
// account) and persists a new session.
func (g *Gate) Login(ctx context.Context, creds Credentials) (Session, error) {
	creds.VendorID = strings.TrimSpace(creds.VendorID)
	if err := g.validate.Struct(creds); err != nil {
		return Session{}, ErrMissingCredentials
	}
	if g.store == nil {
		return Session{}, errors.New("portal: session store is required")
	}

	var customerID string
	if g.demo && creds.VendorID == demoUser && creds.Password == demoPassword {
		customerID = demoCustomerID
	} else {
		if g.auth == nil {
			return Session{}, ErrInvalidCredentials
		}
		id, err := g.auth.Login(ctx, creds.VendorID, creds.Password)
		if err != nil {
			return Session{}, err
		}
		customerID = PadCustomerID(id)
	}

	now := g.now()
	session := Session{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(g.ttl),
	}
	session.Vendor = g.loadProfile(ctx, customerID)

	if err := g.store.Save(ctx, session); err != nil {
		return Session{}, fmt.Errorf("portal: save session: %w", err)
	}
	g.notify(session)
	return session, nil
}

// Logout removes the session. Unknown ids are not an error.
func (g *Gate) Logout(ctx context.Context, id string) error {
	if id == "" || g.store == nil {
		return nil
	}
	if err := g.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("portal: delete session: %w", err)
	}
	g.notify(Session{ID: id})
	return nil
}

// Resolve returns the authenticated session stored under id.
func (g *Gate) Resolve(ctx context.Context, id string) (Session, error) {
	if id == "" || g.store == nil {
		return Session{}, ErrUnauthenticated
	}
	session, err := g.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("portal: load session: %w", err)
	}
	if !session.Authenticated || session.CustomerID == "" || !g.now().Before(session.ExpiresAt) {
		return Session{}, ErrUnauthenticated
	}
	return session, nil
}

// RefreshProfile retries the profile load of a session saved without one.
func (g *Gate) RefreshProfile(ctx context.Context, session Session) (Session, error) {
	if session.Vendor != nil {
		return session, nil
	}
	vendor := g.loadProfile(ctx, session.CustomerID)
	if vendor == nil {
		return session, nil
	}
	session.Vendor = vendor
	if err := g.store.Save(ctx, session); err != nil {
		return session, fmt.Errorf("portal: save session: %w", err)
	}
	g.notify(session)
	return session, nil
}

// Subscribe registers fn for session changes. Logouts deliver a snapshot
// that is not authenticated.
func (g *Gate) Subscribe(fn func(Session)) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	g.subs[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
	}
}

func (g *Gate) notify(session Session) {
	g.mu.RLock()
	subs := make([]func(Session), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.RUnlock()
	for _, fn := range subs {
		fn(session)
	}
}

func (g *Gate) loadProfile(ctx context.Context, customerID string) *Vendor {
	if g.auth == nil {
		return nil
	}
	vendor, err := g.auth.Profile(ctx, customerID)
	if err != nil {
		g.logger.WarnContext(ctx, "profile load failed", "customer_id", customerID, "error", err)
		return nil
	}
	if vendor.ID == "" {
		vendor.ID = customerID
	}
	return &vendor
}

// PadCustomerID left-pads id with zeros to CustomerIDWidth.
func PadCustomerID(id string) string {
	id = strings.TrimSpace(id)
	if n := utf8.RuneCountInString(id); n < CustomerIDWidth {
		return strings.Repeat("0", CustomerIDWidth-n) + id
	}
	return id
}

// Initials returns the upper-cased first letters of the first two words of name.
func Initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		if count++; count == 2 {
			break
		}
	}
	return b.String()
}
