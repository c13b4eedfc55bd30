package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"MonikaNotify/internal/model"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/storage/mq"
)

// PublishFunc 与 mq.PublishMessage 签名一致，测试中替换
type PublishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

type Producer struct {
	publish PublishFunc
	newID   func() string
}

// NewProducer publish 为空时使用 mq.PublishMessage
func NewProducer(publish PublishFunc, newID func() string) *Producer {
	if publish == nil {
		publish = mq.PublishMessage
	}
	return &Producer{publish: publish, newID: newID}
}

// PublishNotifyOutcome 投递通知结果，MessageID 为空时自动生成
func (p *Producer) PublishNotifyOutcome(ctx context.Context, msg model.NotifyOutcomeMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = p.newID()
	}

	if err := p.publish(ctx, NotifyExchange, NotifyOutcomeRoutingKey, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish notify outcome message",
			zap.String("message_id", msg.MessageID),
			zap.Int64("user_id", msg.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish notify outcome: %w", err)
	}

	logger.Logger.Debug("Published notify outcome message",
		zap.String("message_id", msg.MessageID),
		zap.String("type", string(msg.Type)),
		zap.String("result", msg.Result),
	)
	return nil
}
