package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// 服务配置
	ServerPort        string `env:"SERVER_PORT" envDefault:"8888"`
	WebhookServerPort string `env:"WEBHOOK_SERVER_PORT" envDefault:"8889"`
	MockServerPort    string `env:"MOCK_SERVER_PORT" envDefault:"4000"`
	ServerHost        string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment       string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName       string `env:"SERVICE_NAME" envDefault:"monika-notify"`
	ServiceVersion    string `env:"SERVICE_VERSION" envDefault:"1.0.0"`

	// PostgreSQL 配置
	PostgreSQLHost     string   `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string   `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string   `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string   `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string   `env:"POSTGRESQL_DATABASE" envDefault:"monika_notify"`
	PostgreSQLSchema   string   `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string   `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int      `env:"POSTGRESQL_MAX_IDLE" envDefault:"10"`
	PostgreSQLMaxOpen  int      `env:"POSTGRESQL_MAX_OPEN" envDefault:"50"`
	PostgreSQLReplicas []string `env:"POSTGRESQL_REPLICAS" envSeparator:";"` // 只读副本 DSN，分号分隔

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"mwn"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled      bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitWindow       int  `env:"RATE_LIMIT_WINDOW" envDefault:"60"`
	RateLimitMaxRequests  int  `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"120"`
	RateLimitBlockSeconds int  `env:"RATE_LIMIT_BLOCK_SECONDS" envDefault:"300"`

	// WhatsApp Cloud API 配置
	WhatsAppProvider    string        `env:"WHATSAPP_PROVIDER" envDefault:"cloud"` // cloud, mock
	WhatsAppAPIURL      string        `env:"WHATSAPP_API_URL" envDefault:"https://graph.facebook.com/v21.0"`
	WhatsAppPhoneID     string        `env:"WHATSAPP_API_PHONE_ID"`
	WhatsAppAccessToken string        `env:"WHATSAPP_API_ACCESS_TOKEN"`
	WhatsAppTimeout     time.Duration `env:"WHATSAPP_API_TIMEOUT" envDefault:"10s"`

	// 链接配置，用于拼接发送给用户的 URL
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	NotifyAPIURL string `env:"NOTIFY_API_URL" envDefault:"http://localhost:8888"`
	DocsURL      string `env:"DOCS_URL" envDefault:""`

	// 注册流程配置
	RegistrationTTL              time.Duration `env:"REGISTRATION_TTL" envDefault:"10m"`
	WebhookResendCooldownSeconds int           `env:"WEBHOOK_RESEND_COOLDOWN_SECONDS" envDefault:"900"`

	// Facebook webhook 配置
	FacebookAppSecret   string `env:"FACEBOOK_WEBHOOK_APP_SECRET"`
	FacebookVerifyToken string `env:"FACEBOOK_WEBHOOK_VERIFY_TOKEN"`

	// 通知日志写入方式：inline 直接写库，queue 投递到 RabbitMQ 由 worker 落库
	NotifyLogMode string `env:"NOTIFY_LOG_MODE" envDefault:"inline"`
}

// Load 读取 .env 与环境变量并校验
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.WhatsAppProvider {
	case "cloud", "mock":
	default:
		return fmt.Errorf("unsupported WHATSAPP_PROVIDER: %s", c.WhatsAppProvider)
	}

	switch c.NotifyLogMode {
	case "inline", "queue":
	default:
		return fmt.Errorf("unsupported NOTIFY_LOG_MODE: %s", c.NotifyLogMode)
	}

	if c.WhatsAppProvider == "cloud" && (c.WhatsAppPhoneID == "" || c.WhatsAppAccessToken == "") {
		if c.IsProduction() {
			return fmt.Errorf("WHATSAPP_API_PHONE_ID and WHATSAPP_API_ACCESS_TOKEN are required")
		}
		log.Printf("WARN: WhatsApp credentials are not set, messages will fail with FETCH_ERROR")
	}

	if c.FacebookAppSecret == "" {
		log.Printf("WARN: FACEBOOK_WEBHOOK_APP_SECRET is not set, webhook signatures cannot match")
	}

	if c.WebhookResendCooldownSeconds < 0 {
		return fmt.Errorf("WEBHOOK_RESEND_COOLDOWN_SECONDS must not be negative")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) ResendCooldown() time.Duration {
	return time.Duration(c.WebhookResendCooldownSeconds) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsDebug() bool {
	return strings.EqualFold(c.LoggerLevel, "DEBUG")
}
