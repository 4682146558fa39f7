package notification

import (
	"context"
)

// Repository persists delivered notifications.
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
}
