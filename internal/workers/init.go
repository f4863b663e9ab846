package workers

import (
	"context"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
	"meetings/boardroom/internal/notify"
)

type WorkersContainer struct {
	Notifications *NotificationWorker
	Monitor       *QueueMonitor
}

// InitWorkers starts the queued notification pipeline. It is only used
// when notifications go through Redis.
func InitWorkers(ctx context.Context, queue *common.RedisQueueService, sender notify.Sender, m *metrics.MetricsRegistry) *WorkersContainer {
	worker := NewNotificationWorker("sms", queue, sender, m)
	monitor := NewQueueMonitor(queue, m)

	go func() {
		if err := worker.Start(ctx, 3); err != nil {
			logging.Error("Notification workers failed to start", "error", err)
		}
	}()
	go monitor.Start(ctx, 30*time.Second)
	go monitor.StartAutoTrim(ctx, time.Hour, 10000)

	return &WorkersContainer{Notifications: worker, Monitor: monitor}
}
