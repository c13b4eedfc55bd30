package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "monika-notify"

// 结果标签取值
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// WhatsApp 发送相关指标
	DispatchTotal    metric.Int64Counter
	DispatchDuration metric.Float64Histogram

	// 通知接口请求结果
	NotifyRequestsTotal metric.Int64Counter

	// Facebook webhook 校验结果
	WebhookEventsTotal metric.Int64Counter

	// 通知日志投递
	OutcomeRecordErrors metric.Int64Counter
}

// New 使用给定 meter 创建指标，meter 为空时使用全局 MeterProvider
func New(meter metric.Meter) (*OTelMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	var err error
	m := &OTelMetrics{}

	m.DispatchTotal, err = meter.Int64Counter(
		"whatsapp.dispatch.total",
		metric.WithDescription("Total number of WhatsApp template dispatches"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram(
		"whatsapp.dispatch.duration",
		metric.WithDescription("Time spent dispatching a WhatsApp template message"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, err
	}

	m.NotifyRequestsTotal, err = meter.Int64Counter(
		"notify.requests.total",
		metric.WithDescription("Total number of notify webhook requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.WebhookEventsTotal, err = meter.Int64Counter(
		"facebook.webhook.events.total",
		metric.WithDescription("Total number of Facebook webhook deliveries by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.OutcomeRecordErrors, err = meter.Int64Counter(
		"notify.outcome.record.errors",
		metric.WithDescription("Number of dispatch outcomes that could not be recorded"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Noop 返回不上报的指标集合，用于测试与未开启 otel 的场景
func Noop() *OTelMetrics {
	m, _ := New(noop.NewMeterProvider().Meter(meterName))
	return m
}

// RecordDispatch 记录一次 WhatsApp 发送，errorCode 为空表示成功
func (m *OTelMetrics) RecordDispatch(ctx context.Context, kind, template, errorCode string, duration float64) {
	result := ResultSuccess
	if errorCode != "" {
		result = ResultFailed
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("template", template),
		attribute.String("result", result),
		attribute.String("error_code", errorCode),
	}

	m.DispatchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.DispatchDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

// RecordNotifyRequest 记录通知接口的处理结果，code 为空表示已进入发送阶段
func (m *OTelMetrics) RecordNotifyRequest(ctx context.Context, kind, code string) {
	outcome := "dispatched"
	if code != "" {
		outcome = code
	}
	m.NotifyRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// RecordWebhookEvent 记录 Facebook webhook 的处理结果
func (m *OTelMetrics) RecordWebhookEvent(ctx context.Context, outcome string) {
	m.WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *OTelMetrics) RecordOutcomeError(ctx context.Context, kind string) {
	m.OutcomeRecordErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
