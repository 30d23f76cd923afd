package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

type sessionGate interface {
	Login(ctx context.Context, creds portal.Credentials) (portal.Session, error)
	Logout(ctx context.Context, id string) error
	RefreshProfile(ctx context.Context, session portal.Session) (portal.Session, error)
}

// LoginInput signs a vendor in. Result receives the new session.
type LoginInput struct {
	Credentials portal.Credentials
	Result      *portal.Session
}

// LoginCommand authenticates a vendor through the session gate.
type LoginCommand struct {
	gate      sessionGate
	telemetry portal.Telemetry
}

// NewLoginCommand creates the command.
func NewLoginCommand(gate sessionGate, telemetry portal.Telemetry) *LoginCommand {
	return &LoginCommand{gate: gate, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoginInput] = (*LoginCommand)(nil)

// Execute signs the vendor in.
func (c *LoginCommand) Execute(ctx context.Context, msg LoginInput) error {
	if c.gate == nil {
		return errors.New("login command requires session gate")
	}
	session, err := c.gate.Login(ctx, msg.Credentials)
	c.telemetry.Record(ctx, portal.EventLogin, map[string]any{
		"vendor_id": msg.Credentials.VendorID,
		"success":   err == nil,
	})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = session
	}
	return nil
}

// LogoutInput ends a session.
type LogoutInput struct {
	SessionID string
}

// LogoutCommand removes the session and its workspace.
type LogoutCommand struct {
	gate      sessionGate
	telemetry portal.Telemetry
}

// NewLogoutCommand creates the command.
func NewLogoutCommand(gate sessionGate, telemetry portal.Telemetry) *LogoutCommand {
	return &LogoutCommand{gate: gate, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LogoutInput] = (*LogoutCommand)(nil)

// Execute signs the session out.
func (c *LogoutCommand) Execute(ctx context.Context, msg LogoutInput) error {
	if c.gate == nil {
		return errors.New("logout command requires session gate")
	}
	if err := c.gate.Logout(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, portal.EventLogout, map[string]any{"session_id": msg.SessionID})
	return nil
}

// RefreshProfileInput retries the profile load of a session.
type RefreshProfileInput struct {
	Session portal.Session
	Result  *portal.Session
}

// RefreshProfileCommand reloads a missing vendor profile.
type RefreshProfileCommand struct {
	gate sessionGate
}

// NewRefreshProfileCommand creates the command.
func NewRefreshProfileCommand(gate sessionGate) *RefreshProfileCommand {
	return &RefreshProfileCommand{gate: gate}
}

var _ gocommand.Commander[RefreshProfileInput] = (*RefreshProfileCommand)(nil)

// Execute refreshes the profile.
func (c *RefreshProfileCommand) Execute(ctx context.Context, msg RefreshProfileInput) error {
	if c.gate == nil {
		return errors.New("refresh profile command requires session gate")
	}
	session, err := c.gate.RefreshProfile(ctx, msg.Session)
	if msg.Result != nil {
		*msg.Result = session
	}
	return err
}

func normalizeTelemetry(t portal.Telemetry) portal.Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}
