package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"MonikaNotify/storage/redis"
)

const (
	messageProcessedPrefix = "msg:processed"
	processedTTL           = 48 * time.Hour
)

// MessageMarker 消费端幂等标记：processing -> completed，失败时删除标记允许重试
type MessageMarker struct {
	client goredis.Cmdable
}

func NewMessageMarker(client goredis.Cmdable) *MessageMarker {
	return &MessageMarker{client: client}
}

// TryMarkProcessing SETNX 成功返回 true；false 表示重复消息或正在处理
func (m *MessageMarker) TryMarkProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = processedTTL
	}

	ok, err := m.client.SetNX(ctx, redis.Key(messageProcessedPrefix, messageID), "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

func (m *MessageMarker) UnmarkProcessing(ctx context.Context, messageID string) error {
	return m.client.Del(ctx, redis.Key(messageProcessedPrefix, messageID)).Err()
}

func (m *MessageMarker) MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = processedTTL
	}
	return m.client.Set(ctx, redis.Key(messageProcessedPrefix, messageID), "completed", ttl).Err()
}
