package database

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey      = "otel:span"
	startTimeKey = "otel:start_time"
	maxSQLLength = 500
)

// TracingPlugin 为每条 SQL 创建一个 client span，SQL 参数不记录
type TracingPlugin struct {
	tracer trace.Tracer
}

func NewTracingPlugin(serviceName string) *TracingPlugin {
	return &TracingPlugin{tracer: otel.Tracer(serviceName + ".gorm")}
}

// WithTracing 为 GORM 注册追踪插件
func WithTracing(db *gorm.DB, serviceName string) error {
	return db.Use(NewTracingPlugin(serviceName))
}

func (p *TracingPlugin) Name() string {
	return "otel_plugin"
}

func (p *TracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("db.insert")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("db.select")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("db.update")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("db.delete")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("db.row")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("db.raw")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after)
}

// before 在 SQL 生成前执行，此时只知道操作类型和表名
func (p *TracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := p.tracer.Start(db.Statement.Context, operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(semconv.DBSystemPostgreSQL),
		)
		db.InstanceSet(spanKey, span)
		db.InstanceSet(startTimeKey, time.Now())
		db.Statement.Context = ctx
	}
}

func (p *TracingPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	sql := db.Statement.SQL.String()
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
	}

	attrs := []attribute.KeyValue{
		semconv.DBStatement(sql),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	}
	if table := db.Statement.Table; table != "" {
		attrs = append(attrs, semconv.DBSQLTable(table))
	}
	if start, ok := db.InstanceGet(startTimeKey); ok {
		if t, ok := start.(time.Time); ok {
			attrs = append(attrs, attribute.Float64("db.duration_seconds", time.Since(t).Seconds()))
		}
	}
	span.SetAttributes(attrs...)

	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetStatus(codes.Ok, "record not found")
	default:
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
