package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/pkg/logger"
)

var (
	conn        *amqp.Connection
	connMu      sync.RWMutex
	serviceName = "monika-notify"
	tracing     bool
)

// Init 建立 RabbitMQ 连接，连接对进程内所有 publisher / consumer 共享
func Init(cfg *config.Config) error {
	connMu.Lock()
	defer connMu.Unlock()

	if conn != nil && !conn.IsClosed() {
		return nil
	}

	c, err := amqp.DialConfig(cfg.GetRabbitMQURL(), amqp.Config{
		Properties: amqp.Table{"connection_name": cfg.ServiceName},
	})
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	conn = c
	serviceName = cfg.ServiceName
	tracing = cfg.OTelEnabled

	logger.Logger.Info("RabbitMQ initialized successfully",
		zap.String("addr", cfg.RabbitMQAddr),
		zap.String("vhost", cfg.RabbitMQVhost),
	)
	return nil
}

func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

func Close(ctx context.Context) error {
	closePublisherChannel()

	connMu.Lock()
	c := conn
	conn = nil
	connMu.Unlock()

	if c == nil || c.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Topology 交换机与队列定义，服务启动时幂等声明
type Topology struct {
	Exchange     string
	ExchangeKind string
	Queue        string
	RoutingKey   string
}

// Declare 声明持久化的交换机、队列并绑定
func Declare(t Topology) error {
	c := Connection()
	if c == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	kind := t.ExchangeKind
	if kind == "" {
		kind = amqp.ExchangeTopic
	}

	if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", t.Queue, err)
	}

	return nil
}
