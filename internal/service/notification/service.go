package notification

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/sse"
	"github.com/google/uuid"
)

type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type queued struct {
	recipientID string
	msg         notification.Message
	at          time.Time
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config

	queue   chan queued
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopped atomic.Bool
}

// NewNotificationService starts the background workers that persist queued
// notifications in batches and push them to live streams.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config) notification.Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		queue:  make(chan queued, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)
	return s
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]queued, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.persist(id, batch)
		batch = batch[:0]
	}

	for {
		select {
		case q := <-s.queue:
			batch = append(batch, q)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			for {
				select {
				case q := <-s.queue:
					batch = append(batch, q)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *service) persist(worker int, batch []queued) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	notifications := make([]*notification.Notification, len(batch))
	for i, q := range batch {
		notifications[i] = &notification.Notification{
			ID:          uuid.New().String(),
			RecipientID: q.recipientID,
			Type:        q.msg.Type,
			Title:       q.msg.Title,
			Message:     q.msg.Message,
			Data:        q.msg.Data,
			CreatedAt:   q.at,
		}
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		slog.Error("Notification: failed to batch insert", "worker", worker, "count", len(notifications), "error", err)
		return
	}
	slog.Debug("Notification: batch inserted", "worker", worker, "count", len(notifications))

	for _, n := range notifications {
		s.hub.Publish(n.RecipientID, toEvent(n))
	}
}

func toEvent(n *notification.Notification) notification.SSEEvent {
	return notification.SSEEvent{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

// Notify queues msg for recipientID. A full queue or a stopped service drops
// the message with a log line.
func (s *service) Notify(ctx context.Context, recipientID string, msg notification.Message) {
	if recipientID == "" {
		return
	}
	if s.stopped.Load() {
		slog.Warn("Notification: service stopped, dropping", "recipient_id", recipientID, "type", msg.Type)
		return
	}
	select {
	case s.queue <- queued{recipientID: recipientID, msg: msg, at: time.Now()}:
	default:
		slog.Error("Notification: dropping", "recipient_id", recipientID, "type", msg.Type, "error", notification.ErrQueueFull)
	}
}

// Subscribe streams events for userID until ctx ends or cleanup is called.
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return ch, cleanup
}

// Stop drains the queue, flushes the workers and waits for them.
func (s *service) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	slog.Info("Notification service stopped")
}
