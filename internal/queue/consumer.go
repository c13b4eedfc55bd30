package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"MonikaNotify/internal/model"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/storage/mq"
)

// MessageMarker 消费幂等标记，由 cache.MessageMarker 实现
type MessageMarker interface {
	TryMarkProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	UnmarkProcessing(ctx context.Context, messageID string) error
	MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) error
}

// NotifyLogWriter 由 repository.NotifyLogRepository 实现
type NotifyLogWriter interface {
	Create(ctx context.Context, log *model.NotifyLog) error
}

type OutcomeConsumer struct {
	marker MessageMarker
	logs   NotifyLogWriter
}

func NewOutcomeConsumer(marker MessageMarker, logs NotifyLogWriter) *OutcomeConsumer {
	return &OutcomeConsumer{marker: marker, logs: logs}
}

// Start 阻塞直到 ctx 取消
func (c *OutcomeConsumer) Start(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         NotifyOutcomeQueue,
		ConsumerTag:   "notify_outcome_consumer",
		PrefetchCount: 20,
		Handler:       c.Handle,
	})
}

// Handle 写入 notify_logs；重复消息返回 SkipMessageError
func (c *OutcomeConsumer) Handle(ctx context.Context, body []byte) error {
	var msg model.NotifyOutcomeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed notify outcome message: %v", err)}
	}
	if msg.MessageID == "" {
		return &errors.SkipMessageError{Reason: "notify outcome message without message_id"}
	}

	first, err := c.marker.TryMarkProcessing(ctx, msg.MessageID, time.Hour)
	if err != nil {
		// Redis 不可用时继续处理，log_code 唯一索引兜底
		logger.Logger.Warn("Failed to check message processed status",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	} else if !first {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
	}

	log := &model.NotifyLog{
		LogCode:   msg.MessageID,
		UserID:    msg.UserID,
		Type:      msg.Type,
		Result:    msg.Result,
		ErrorCode: msg.ErrorCode,
		MessageID: msg.WaMessageID,
	}
	if t, perr := time.Parse(time.RFC3339Nano, msg.OccurredAt); perr == nil {
		log.CreatedAt = t
	}

	if err := c.logs.Create(ctx, log); err != nil {
		if uerr := c.marker.UnmarkProcessing(ctx, msg.MessageID); uerr != nil {
			logger.Logger.Warn("Failed to unmark message", zap.String("message_id", msg.MessageID), zap.Error(uerr))
		}
		return fmt.Errorf("failed to save notify log: %w", err)
	}

	if err := c.marker.MarkProcessed(ctx, msg.MessageID, 0); err != nil {
		logger.Logger.Warn("Failed to mark message as processed",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}

	return nil
}
