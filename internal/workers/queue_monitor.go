package workers

import (
	"context"
	"fmt"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
)

const (
	pendingAlert = 1000
	lengthAlert  = 5000
)

// StreamInspector reads and trims the notification stream.
type StreamInspector interface {
	QueueLength(ctx context.Context, stream string) (int64, error)
	PendingCount(ctx context.Context, stream, group string) (int64, error)
	TrimStream(ctx context.Context, stream string, maxLen int64) error
}

// QueueStats is a snapshot of the notification stream.
type QueueStats struct {
	Stream       string    `json:"stream"`
	QueueLength  int64     `json:"queue_length"`
	PendingCount int64     `json:"pending_count"`
	Status       string    `json:"status"`
	LastChecked  time.Time `json:"last_checked"`
}

// QueueMonitor publishes the stream depth as a gauge and keeps the stream
// from growing without bound.
type QueueMonitor struct {
	queue   StreamInspector
	stream  string
	group   string
	metrics *metrics.MetricsRegistry
}

func NewQueueMonitor(queue StreamInspector, m *metrics.MetricsRegistry) *QueueMonitor {
	return &QueueMonitor{
		queue:   queue,
		stream:  common.NotificationStream,
		group:   common.NotificationGroup,
		metrics: m,
	}
}

func (m *QueueMonitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *QueueMonitor) check(ctx context.Context) {
	stats, err := m.Stats(ctx)
	if err != nil {
		logging.Warn("Failed to read notification queue stats", "error", err)
		return
	}
	if stats.Status != "OK" {
		logging.Warn("Notification queue needs attention",
			"status", stats.Status,
			"length", stats.QueueLength,
			"pending", stats.PendingCount)
		return
	}
	logging.Debug("Notification queue healthy", "length", stats.QueueLength, "pending", stats.PendingCount)
}

// Stats reads the stream and updates the depth gauge.
func (m *QueueMonitor) Stats(ctx context.Context) (*QueueStats, error) {
	length, err := m.queue.QueueLength(ctx, m.stream)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue length: %w", err)
	}
	// the group is missing until the first worker starts
	pending, err := m.queue.PendingCount(ctx, m.stream, m.group)
	if err != nil {
		pending = 0
	}

	status := "OK"
	switch {
	case pending > pendingAlert:
		status = "HIGH PENDING"
	case length > lengthAlert:
		status = "HIGH QUEUE"
	}

	if m.metrics != nil {
		m.metrics.NotificationQueueDepth.Set(float64(length))
	}
	return &QueueStats{
		Stream:       m.stream,
		QueueLength:  length,
		PendingCount: pending,
		Status:       status,
		LastChecked:  time.Now().UTC(),
	}, nil
}

// StartAutoTrim caps the stream at maxLen entries every interval.
func (m *QueueMonitor) StartAutoTrim(ctx context.Context, interval time.Duration, maxLen int64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.queue.TrimStream(ctx, m.stream, maxLen); err != nil {
				logging.Warn("Failed to trim notification stream", "error", err)
			}
		}
	}
}
