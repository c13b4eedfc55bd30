package whatsapp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
)

// Client WhatsApp 发送客户端接口
type Client interface {
	// Send 发送一条模板消息，成功时返回解码后的响应，失败时返回
	// errors.FetchError 或 errors.ParseJSONError，两者不会同时为空
	Send(ctx context.Context, template string, params []string, to string) (*MessageResponse, error)
}

// Options Cloud API 连接参数
type Options struct {
	BaseURL     string
	PhoneID     string
	AccessToken string
	Timeout     time.Duration
}

// HTTPClient 基于 hertz client 调用 Cloud API
type HTTPClient struct {
	opts Options
	cli  *client.Client
}

// New 根据配置选择实现，mock 用于本地联调
func New(cfg *config.Config) (Client, error) {
	switch cfg.WhatsAppProvider {
	case "mock":
		logger.Logger.Info("WhatsApp client initialized", zap.String("provider", "mock"))
		return NewMockClient(), nil
	case "cloud":
		c, err := NewHTTPClient(Options{
			BaseURL:     cfg.WhatsAppAPIURL,
			PhoneID:     cfg.WhatsAppPhoneID,
			AccessToken: cfg.WhatsAppAccessToken,
			Timeout:     cfg.WhatsAppTimeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Logger.Info("WhatsApp client initialized",
			zap.String("provider", "cloud"),
			zap.String("base_url", cfg.WhatsAppAPIURL),
		)
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported WhatsApp provider: %s", cfg.WhatsAppProvider)
	}
}

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	cli, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(opts.Timeout),
		client.WithClientReadTimeout(opts.Timeout),
		client.WithWriteTimeout(opts.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create WhatsApp http client: %w", err)
	}

	return &HTTPClient{opts: opts, cli: cli}, nil
}

func (c *HTTPClient) endpoint() string {
	return c.opts.BaseURL + "/" + c.opts.PhoneID + "/messages"
}

func (c *HTTPClient) Send(ctx context.Context, template string, params []string, to string) (*MessageResponse, error) {
	body, err := json.Marshal(NewTemplateMessage(template, params, to))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.FetchError, err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.endpoint())
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Authorization", "Bearer "+c.opts.AccessToken)
	req.SetBody(body)

	if err := c.cli.DoTimeout(ctx, req, resp, c.opts.Timeout); err != nil {
		logger.Logger.Warn("WhatsApp API call failed",
			zap.String("template", template),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", errors.FetchError, err)
	}

	status := resp.StatusCode()
	if status < consts.StatusOK || status >= consts.StatusMultipleChoices {
		var apiErr APIError
		_ = json.Unmarshal(resp.Body(), &apiErr)
		logger.Logger.Warn("WhatsApp API returned non-success status",
			zap.String("template", template),
			zap.Int("status", status),
			zap.String("api_error", apiErr.Error.Message),
			zap.Int("api_code", apiErr.Error.Code),
		)
		return nil, fmt.Errorf("%w: status %d", errors.FetchError, status)
	}

	var out MessageResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		logger.Logger.Warn("Failed to decode WhatsApp API response",
			zap.String("template", template),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", errors.ParseJSONError, err)
	}

	return &out, nil
}
