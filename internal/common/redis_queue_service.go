package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetings/boardroom/internal/logging"

	"github.com/redis/go-redis/v9"
)

const (
	NotificationStream = "notifications:sms"
	NotificationGroup  = "notification-senders"
)

// NotificationQueueItem is one outbound message waiting for the gateway.
type NotificationQueueItem struct {
	To         string    `json:"to"`
	Message    string    `json:"message"`
	Name       string    `json:"name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RedisQueueService moves notification items through a Redis stream with a
// consumer group.
type RedisQueueService struct {
	client *redis.Client
}

func NewRedisQueueService(client *redis.Client) *RedisQueueService {
	return &RedisQueueService{client: client}
}

func encodeItem(item *NotificationQueueItem) (map[string]interface{}, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return map[string]interface{}{"data": string(data)}, nil
}

func decodeItem(msg redis.XMessage) (*NotificationQueueItem, error) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return nil, errors.New("invalid message format: data field missing")
	}
	var item NotificationQueueItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &item, nil
}

func (s *RedisQueueService) Enqueue(ctx context.Context, stream string, item *NotificationQueueItem) error {
	values, err := encodeItem(item)
	if err != nil {
		return err
	}
	if err := s.client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// Dequeue blocks up to block for one new message. A nil item with no error
// means the wait timed out.
func (s *RedisQueueService) Dequeue(ctx context.Context, stream, group, consumer string, block time.Duration) (*NotificationQueueItem, string, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	item, err := decodeItem(msg)
	if err != nil {
		// the message id is still returned so the caller can ack poison
		return nil, msg.ID, err
	}
	return item, msg.ID, nil
}

func (s *RedisQueueService) Ack(ctx context.Context, stream, group, messageID string) error {
	return s.client.XAck(ctx, stream, group, messageID).Err()
}

// CreateConsumerGroup is idempotent.
func (s *RedisQueueService) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (s *RedisQueueService) QueueLength(ctx context.Context, stream string) (int64, error) {
	n, err := s.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

func (s *RedisQueueService) PendingCount(ctx context.Context, stream, group string) (int64, error) {
	pending, err := s.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return pending.Count, nil
}

func (s *RedisQueueService) TrimStream(ctx context.Context, stream string, maxLen int64) error {
	return s.client.XTrimMaxLen(ctx, stream, maxLen).Err()
}

// ClaimStale takes over messages a dead consumer left pending for longer
// than minIdle.
func (s *RedisQueueService) ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration) ([]*NotificationQueueItem, []string, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	var items []*NotificationQueueItem
	var ids []string
	for _, msg := range messages {
		item, err := decodeItem(msg)
		if err != nil {
			logging.Warn("Dropping unreadable claimed message", "id", msg.ID, "error", err)
			continue
		}
		items = append(items, item)
		ids = append(ids, msg.ID)
	}
	return items, ids, nil
}
