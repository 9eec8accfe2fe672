package panel

import (
	"context"
	"errors"
	"time"
)

// ProvisionResult is what the panel reports after creating or extending a
// client.
type ProvisionResult struct {
	ClientUUID       string
	ExpiresAt        time.Time
	ConnectionString string
}

// Provisioner creates and extends access credentials on a remote VPN panel.
// Calls are blocking network I/O: callers pass a context with a deadline and
// treat timeout as provisioning failure, never as success. The money-state
// transition is committed before any Provisioner call, so a failure here
// cannot roll back a settlement - it goes to the reconciliation alert queue.
type Provisioner interface {
	Issue(ctx context.Context, hostName, email string, days int) (*ProvisionResult, error)
	Extend(ctx context.Context, hostName, email string, days int) (*ProvisionResult, error)
}

var ErrPanelNotConfigured = errors.New("vpn panel is not configured")

// Unavailable stands in when no panel is configured. Every call fails, which
// routes paid purchases to the reconciliation alert queue instead of silently
// dropping them.
type Unavailable struct{}

func (Unavailable) Issue(ctx context.Context, hostName, email string, days int) (*ProvisionResult, error) {
	return nil, ErrPanelNotConfigured
}

func (Unavailable) Extend(ctx context.Context, hostName, email string, days int) (*ProvisionResult, error) {
	return nil, ErrPanelNotConfigured
}
