// Package notifier delivers payment outcomes to users and reconciliation
// alerts to the operator. The chat conversation flow lives elsewhere; this
// side only ever sends.
package notifier

import "context"

type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
	NotifyAdmin(ctx context.Context, text string) error
}

// Nop is used when no bot token is configured (tests, local runs).
type Nop struct{}

func (Nop) NotifyUser(context.Context, int64, string) error { return nil }
func (Nop) NotifyAdmin(context.Context, string) error       { return nil }
