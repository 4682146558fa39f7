package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	mu    sync.Mutex
	calls int
}

func (f *failingRepo) Create(ctx context.Context, n *notification.Notification) error {
	return f.CreateBatch(ctx, []*notification.Notification{n})
}

func (f *failingRepo) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("db down")
}

func TestNotify_PersistsAndStreams(t *testing.T) {
	store := memory.NewStore()
	hub := sse.NewHub(4)
	svc := NewNotificationService(memory.NewNotificationRepository(store), hub, Config{FlushInterval: 10 * time.Millisecond, WorkerCount: 1})
	defer svc.Stop()

	stream, cleanup := svc.Subscribe(context.Background(), "emp-1")
	defer cleanup()

	svc.Notify(context.Background(), "emp-1", notification.Message{
		Type:    notification.TypeRequestApproved,
		Title:   "Leave approved",
		Message: "Your leave request was approved",
		Data:    map[string]interface{}{"request_id": "req-1"},
	})

	select {
	case ev := <-stream:
		assert.Equal(t, notification.TypeRequestApproved, ev.Type)
		assert.Equal(t, "req-1", ev.Data["request_id"])
		assert.NotEmpty(t, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no event streamed")
	}

	stored := store.Notifications()
	require.Len(t, stored, 1)
	assert.Equal(t, "emp-1", stored[0].RecipientID)
}

func TestStop_FlushesQueue(t *testing.T) {
	store := memory.NewStore()
	svc := NewNotificationService(memory.NewNotificationRepository(store), sse.NewHub(1), Config{FlushInterval: time.Hour, BatchSize: 50})

	for i := 0; i < 5; i++ {
		svc.Notify(context.Background(), "emp-1", notification.Message{Type: notification.TypeApprovalRequired})
	}
	svc.Stop()
	svc.Stop()

	assert.Len(t, store.Notifications(), 5)

	svc.Notify(context.Background(), "emp-1", notification.Message{Type: notification.TypeApprovalRequired})
	assert.Len(t, store.Notifications(), 5, "messages after stop are dropped")
}

func TestNotify_FailuresDoNotReachCaller(t *testing.T) {
	repo := &failingRepo{}
	hub := sse.NewHub(1)
	svc := NewNotificationService(repo, hub, Config{FlushInterval: 5 * time.Millisecond, WorkerCount: 1, QueueSize: 1})

	stream, cleanup := svc.Subscribe(context.Background(), "emp-1")
	defer cleanup()

	for i := 0; i < 10; i++ {
		svc.Notify(context.Background(), "emp-1", notification.Message{Type: notification.TypeRequestRejected})
	}
	svc.Stop()

	repo.mu.Lock()
	assert.GreaterOrEqual(t, repo.calls, 1)
	repo.mu.Unlock()
	assert.Empty(t, stream, "failed batches are not streamed")
}

func TestSubscribe_EndsWithContext(t *testing.T) {
	hub := sse.NewHub(1)
	svc := NewNotificationService(memory.NewNotificationRepository(memory.NewStore()), hub, Config{})
	defer svc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	stream, _ := svc.Subscribe(ctx, "emp-1")
	cancel()

	select {
	case _, open := <-stream:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("stream not closed")
	}
	assert.Equal(t, 0, hub.SubscriberCount("emp-1"))
}
