// Package mail delivers rendered lifecycle messages to an address. Delivery
// is best-effort from the caller's point of view: the orchestrator logs a
// failure and moves on, it never rolls anything back.
package mail

import "context"

// Sender delivers one pre-rendered HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
