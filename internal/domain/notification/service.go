package notification

import (
	"context"
)

// Notifier is the sink the engine reports to. Notify never blocks on delivery
// and never fails the caller; delivery problems are the sink's to log.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, msg Message)
}

// Service is the default sink: it persists notifications and streams them
// to subscribed clients.
type Service interface {
	Notifier

	// Subscribe streams notifications for userID until unsubscribe is called.
	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())

	// Stop drains the queue and waits for the workers.
	Stop()
}
