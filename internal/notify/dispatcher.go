// Package notify delivers short text notifications. Callers treat delivery
// as best effort: they log a failed Send and carry on.
package notify

import (
	"context"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
)

type Dispatcher interface {
	Send(ctx context.Context, to, message, name string) error
}

// Sender is the gateway side of a direct dispatch.
type Sender interface {
	Send(ctx context.Context, to, message, customerName string) (int, error)
}

// Direct calls the gateway inline.
type Direct struct {
	sender  Sender
	metrics *metrics.MetricsRegistry
}

func NewDirect(sender Sender, m *metrics.MetricsRegistry) *Direct {
	return &Direct{sender: sender, metrics: m}
}

func (d *Direct) Send(ctx context.Context, to, message, name string) error {
	_, err := d.sender.Send(ctx, to, message, name)
	count(d.metrics, "direct", err)
	return err
}

// Enqueuer is the producer side of the notification stream.
type Enqueuer interface {
	Enqueue(ctx context.Context, stream string, item *common.NotificationQueueItem) error
}

// Queued hands messages to the stream; a worker delivers them.
type Queued struct {
	queue   Enqueuer
	stream  string
	metrics *metrics.MetricsRegistry
}

func NewQueued(queue Enqueuer, stream string, m *metrics.MetricsRegistry) *Queued {
	return &Queued{queue: queue, stream: stream, metrics: m}
}

func (q *Queued) Send(ctx context.Context, to, message, name string) error {
	err := q.queue.Enqueue(ctx, q.stream, &common.NotificationQueueItem{
		To:         to,
		Message:    message,
		Name:       name,
		EnqueuedAt: time.Now().UTC(),
	})
	count(q.metrics, "queue", err)
	return err
}

// Discard drops every message. Used when NOTIFY_MODE=off.
type Discard struct{}

func (Discard) Send(_ context.Context, to, _, _ string) error {
	logging.Debug("Notification discarded", "to", to)
	return nil
}

func count(m *metrics.MetricsRegistry, channel string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}
