package service

import (
	"context"
	"fmt"
	"time"

	"MonikaNotify/internal/model"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/metrics"
	"MonikaNotify/pkg/whatsapp"
)

// Outcome 一次通知发送的结果
type Outcome struct {
	UserID     int64
	Kind       whatsapp.ActionKind
	Response   *whatsapp.MessageResponse
	Err        error
	OccurredAt time.Time
}

func (o Outcome) result() string {
	if o.Err != nil {
		return metrics.ResultFailed
	}
	return metrics.ResultSuccess
}

// OutcomeRecorder 记录通知发送结果，失败不影响接口响应
type OutcomeRecorder interface {
	Record(ctx context.Context, o Outcome) error
}

// NotifyLogWriter 由 repository.NotifyLogRepository 实现
type NotifyLogWriter interface {
	Create(ctx context.Context, log *model.NotifyLog) error
}

// OutcomePublisher 由 queue.Producer 实现
type OutcomePublisher interface {
	PublishNotifyOutcome(ctx context.Context, msg model.NotifyOutcomeMessage) error
}

// InlineOutcomeRecorder 直接写 notify_logs
type InlineOutcomeRecorder struct {
	logs  NotifyLogWriter
	newID func() string
}

func NewInlineOutcomeRecorder(logs NotifyLogWriter, newID func() string) *InlineOutcomeRecorder {
	return &InlineOutcomeRecorder{logs: logs, newID: newID}
}

func (r *InlineOutcomeRecorder) Record(ctx context.Context, o Outcome) error {
	return r.logs.Create(ctx, &model.NotifyLog{
		LogCode:   r.newID(),
		UserID:    o.UserID,
		Type:      model.NotifyTypeFor(o.Kind),
		Result:    o.result(),
		ErrorCode: errors.CodeOf(o.Err),
		MessageID: o.Response.FirstMessageID(),
		CreatedAt: o.OccurredAt,
	})
}

// QueueOutcomeRecorder 投递到 RabbitMQ，由 worker 落库
type QueueOutcomeRecorder struct {
	publisher OutcomePublisher
	newID     func() string
}

func NewQueueOutcomeRecorder(publisher OutcomePublisher, newID func() string) *QueueOutcomeRecorder {
	return &QueueOutcomeRecorder{publisher: publisher, newID: newID}
}

func (r *QueueOutcomeRecorder) Record(ctx context.Context, o Outcome) error {
	return r.publisher.PublishNotifyOutcome(ctx, model.NotifyOutcomeMessage{
		MessageID:   r.newID(),
		UserID:      o.UserID,
		Type:        model.NotifyTypeFor(o.Kind),
		Result:      o.result(),
		ErrorCode:   errors.CodeOf(o.Err),
		WaMessageID: o.Response.FirstMessageID(),
		OccurredAt:  o.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}

// NewOutcomeRecorder 按 NOTIFY_LOG_MODE 选择实现
func NewOutcomeRecorder(mode string, logs NotifyLogWriter, publisher OutcomePublisher, newID func() string) (OutcomeRecorder, error) {
	switch mode {
	case "inline":
		return NewInlineOutcomeRecorder(logs, newID), nil
	case "queue":
		return NewQueueOutcomeRecorder(publisher, newID), nil
	default:
		return nil, fmt.Errorf("unsupported notify log mode: %s", mode)
	}
}
