package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
	"meetings/boardroom/internal/notify"
)

// StreamConsumer is the consumer side of the notification stream.
type StreamConsumer interface {
	CreateConsumerGroup(ctx context.Context, stream, group string) error
	Dequeue(ctx context.Context, stream, group, consumer string, block time.Duration) (*common.NotificationQueueItem, string, error)
	Ack(ctx context.Context, stream, group, messageID string) error
	ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration) ([]*common.NotificationQueueItem, []string, error)
}

// NotificationWorker drains the notification stream into the SMS gateway.
// Every message is acked once attempted, delivered or not.
type NotificationWorker struct {
	workerID string
	stream   string
	group    string
	queue    StreamConsumer
	sender   notify.Sender
	metrics  *metrics.MetricsRegistry

	block         time.Duration
	backoff       time.Duration
	claimInterval time.Duration
	minIdle       time.Duration
}

func NewNotificationWorker(workerID string, queue StreamConsumer, sender notify.Sender, m *metrics.MetricsRegistry) *NotificationWorker {
	return &NotificationWorker{
		workerID:      workerID,
		stream:        common.NotificationStream,
		group:         common.NotificationGroup,
		queue:         queue,
		sender:        sender,
		metrics:       m,
		block:         5 * time.Second,
		backoff:       time.Second,
		claimInterval: 2 * time.Minute,
		minIdle:       5 * time.Minute,
	}
}

// Start runs numWorkers consumers plus a stale-message claimer and returns
// once ctx is cancelled and all of them have stopped.
func (w *NotificationWorker) Start(ctx context.Context, numWorkers int) error {
	if err := w.queue.CreateConsumerGroup(ctx, w.stream, w.group); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	logging.Info("Notification workers starting", "workers", numWorkers, "stream", w.stream)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		name := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.consume(ctx, name)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStale(ctx)
	}()

	wg.Wait()
	logging.Info("Notification workers stopped")
	return nil
}

func (w *NotificationWorker) consume(ctx context.Context, name string) {
	delivered, failed := 0, 0
	for {
		if ctx.Err() != nil {
			logging.Info("Notification worker shutting down", "worker", name, "delivered", delivered, "failed", failed)
			return
		}

		item, messageID, err := w.queue.Dequeue(ctx, w.stream, w.group, name, w.block)
		if err != nil {
			if messageID != "" {
				logging.Warn("Dropping unreadable notification", "worker", name, "id", messageID, "error", err)
				w.ack(ctx, messageID)
				continue
			}
			if ctx.Err() == nil {
				logging.Warn("Failed to read notification stream", "worker", name, "error", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}
		if item == nil {
			continue
		}

		if w.deliver(ctx, item) {
			delivered++
		} else {
			failed++
		}
		w.ack(ctx, messageID)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, item *common.NotificationQueueItem) bool {
	_, err := w.sender.Send(ctx, item.To, item.Message, item.Name)
	if w.metrics != nil {
		outcome := "sent"
		if err != nil {
			outcome = "failed"
		}
		w.metrics.NotificationsTotal.WithLabelValues("worker", outcome).Inc()
	}
	if err != nil {
		logging.Warn("Failed to deliver notification", "to", item.To, "error", err)
		return false
	}
	return true
}

func (w *NotificationWorker) ack(ctx context.Context, messageID string) {
	if err := w.queue.Ack(ctx, w.stream, w.group, messageID); err != nil {
		logging.Warn("Failed to ack notification", "id", messageID, "error", err)
	}
}

// claimStale re-delivers messages a crashed consumer left pending.
func (w *NotificationWorker) claimStale(ctx context.Context) {
	ticker := time.NewTicker(w.claimInterval)
	defer ticker.Stop()

	claimer := w.workerID + "-claimer"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items, ids, err := w.queue.ClaimStale(ctx, w.stream, w.group, claimer, w.minIdle)
			if err != nil {
				logging.Warn("Failed to claim stale notifications", "error", err)
				continue
			}
			if len(items) > 0 {
				logging.Info("Claimed stale notifications", "count", len(items))
			}
			for i, item := range items {
				w.deliver(ctx, item)
				w.ack(ctx, ids[i])
			}
		}
	}
}
