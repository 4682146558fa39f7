package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/google/uuid"
)

type notificationRepositoryImpl struct {
	s *Store
}

func NewNotificationRepository(s *Store) notification.Repository {
	return &notificationRepositoryImpl{s: s}
}

func (r *notificationRepositoryImpl) Create(ctx context.Context, n *notification.Notification) error {
	return r.CreateBatch(ctx, []*notification.Notification{n})
}

func (r *notificationRepositoryImpl) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	return r.s.write(ctx, func(d *data) error {
		for _, n := range notifications {
			if n.ID == "" {
				n.ID = uuid.NewString()
			}
			if n.CreatedAt.IsZero() {
				n.CreatedAt = r.s.now()
			}
			d.notifications = append(d.notifications, *n)
		}
		return nil
	})
}
