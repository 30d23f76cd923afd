package portal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	saveErr  error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]Session{}}
}

func (s *memorySessionStore) Save(_ context.Context, session Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Load(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type stubAuthenticator struct {
	customerID  string
	loginErr    error
	vendor      Vendor
	profileErr  error
	loginCalls  int
	lastProfile string
}

func (a *stubAuthenticator) Login(_ context.Context, _, _ string) (string, error) {
	a.loginCalls++
	return a.customerID, a.loginErr
}

func (a *stubAuthenticator) Profile(_ context.Context, customerID string) (Vendor, error) {
	a.lastProfile = customerID
	return a.vendor, a.profileErr
}

func TestGateLoginPadsCustomerID(t *testing.T) {
	store := newMemorySessionStore()
	auth := &stubAuthenticator{customerID: "42", vendor: Vendor{Name: "Acme Supplies", City: "Pune"}}
	gate := NewGate(store, auth)

	session, err := gate.Login(context.Background(), Credentials{VendorID: "42", Password: "secret"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.CustomerID != "0000000042" {
		t.Fatalf("expected padded customer id, got %q", session.CustomerID)
	}
	if !session.IsAuthenticated() || session.CurrentSubjectID() != "0000000042" {
		t.Fatalf("expected authenticated session, got %+v", session)
	}
	if session.Vendor == nil || session.Vendor.Name != "Acme Supplies" || session.Vendor.ID != "0000000042" {
		t.Fatalf("expected profile to be attached, got %+v", session.Vendor)
	}
	if auth.lastProfile != "0000000042" {
		t.Fatalf("expected profile lookup with padded id, got %q", auth.lastProfile)
	}

	resolved, err := gate.Resolve(context.Background(), session.ID)
	if err != nil || resolved.ID != session.ID {
		t.Fatalf("expected session to resolve, got %+v err=%v", resolved, err)
	}
}

func TestGateLoginRequiresCredentials(t *testing.T) {
	gate := NewGate(newMemorySessionStore(), &stubAuthenticator{})
	for _, creds := range []Credentials{{}, {VendorID: "  ", Password: "x"}, {VendorID: "v1"}} {
		if _, err := gate.Login(context.Background(), creds); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials for %+v, got %v", creds, err)
		}
	}
}

func TestGateLoginPropagatesBackendRejection(t *testing.T) {
	store := newMemorySessionStore()
	gate := NewGate(store, &stubAuthenticator{loginErr: ErrInvalidCredentials})
	if _, err := gate.Login(context.Background(), Credentials{VendorID: "1", Password: "bad"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("expected no session to be stored")
	}
}

func TestGateDemoLogin(t *testing.T) {
	auth := &stubAuthenticator{profileErr: errors.New("offline")}
	gate := NewGate(newMemorySessionStore(), auth, WithDemoLogin(true))
	session, err := gate.Login(context.Background(), Credentials{VendorID: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.CustomerID != "0000001234" || auth.loginCalls != 0 {
		t.Fatalf("expected demo bypass, got %+v calls=%d", session, auth.loginCalls)
	}
	if session.Vendor != nil {
		t.Fatalf("expected no vendor when profile load fails")
	}
	if session.DisplayName() != "0000001234" {
		t.Fatalf("expected display name fallback, got %q", session.DisplayName())
	}

	disabled := NewGate(newMemorySessionStore(), &stubAuthenticator{loginErr: ErrInvalidCredentials})
	if _, err := disabled.Login(context.Background(), Credentials{VendorID: "admin", Password: "admin"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected demo login to be disabled by default, got %v", err)
	}
}

func TestGateLogoutAndSubscribe(t *testing.T) {
	gate := NewGate(newMemorySessionStore(), &stubAuthenticator{customerID: "7"})
	var events []Session
	cancel := gate.Subscribe(func(s Session) { events = append(events, s) })
	defer cancel()

	session, err := gate.Login(context.Background(), Credentials{VendorID: "7", Password: "pw"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := gate.Logout(context.Background(), session.ID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := gate.Resolve(context.Background(), session.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
	if len(events) != 2 || !events[0].IsAuthenticated() || events[1].IsAuthenticated() {
		t.Fatalf("unexpected session events %+v", events)
	}
}

func TestGateResolveExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	gate := NewGate(newMemorySessionStore(), &stubAuthenticator{customerID: "9"},
		WithSessionTTL(time.Hour), WithGateClock(clock.Now))
	session, err := gate.Login(context.Background(), Credentials{VendorID: "9", Password: "pw"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := gate.Resolve(context.Background(), session.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
	if _, err := gate.Resolve(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected empty id to be rejected, got %v", err)
	}
}

func TestGateRefreshProfile(t *testing.T) {
	store := newMemorySessionStore()
	auth := &stubAuthenticator{customerID: "5", profileErr: errors.New("timeout")}
	gate := NewGate(store, auth)
	session, _ := gate.Login(context.Background(), Credentials{VendorID: "5", Password: "pw"})

	auth.profileErr = nil
	auth.vendor = Vendor{Name: "Late Loader"}
	refreshed, err := gate.RefreshProfile(context.Background(), session)
	if err != nil {
		t.Fatalf("RefreshProfile returned error: %v", err)
	}
	if refreshed.Vendor == nil || refreshed.Vendor.Name != "Late Loader" {
		t.Fatalf("expected refreshed vendor, got %+v", refreshed.Vendor)
	}
	if stored := store.sessions[session.ID]; stored.Vendor == nil {
		t.Fatalf("expected refreshed session to be stored")
	}
}

func TestPadCustomerID(t *testing.T) {
	cases := map[string]string{
		"2":           "0000000002",
		" 1234 ":      "0000001234",
		"0000000002":  "0000000002",
		"12345678901": "12345678901",
	}
	for in, want := range cases {
		if got := PadCustomerID(in); got != want {
			t.Fatalf("PadCustomerID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"acme supplies private limited": "AS",
		"Zenith":                        "Z",
		"":                              "",
		"  élan   vital ":               "ÉV",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Fatalf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}
