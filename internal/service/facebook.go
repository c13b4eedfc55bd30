package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"MonikaNotify/internal/model"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/metrics"
	"MonikaNotify/utils"
)

const (
	headerSignature256 = "x-hub-signature-256"
	headerSignature    = "x-hub-signature"

	challengeInvalid = "Invalid token"
)

// Facebook webhook 错误信息
const (
	msgNoSignature      = "No X-Hub-Signature or X-Hub-Signature-256 headers provided"
	msgNoBody           = "No body provided"
	msgNoSHAType        = "No SHA type provided"
	msgSignatureInvalid = "Signature does not match"
)

// webhook 处理结果，用作指标标签
const (
	webhookSaved        = "saved"
	webhookIgnored      = "ignored"
	webhookNoSignature  = "no_signature"
	webhookNoBody       = "no_body"
	webhookBadAlgorithm = "bad_algorithm"
	webhookBadSignature = "bad_signature"
)

// phone_number_id 必须等于本应用的号码 ID，其他号码的推送直接忽略
const payloadSchemaTemplate = `{
	"type": "object",
	"required": ["entry"],
	"properties": {
		"entry": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["changes"],
				"properties": {
					"changes": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["value"],
							"properties": {
								"value": {
									"type": "object",
									"required": ["metadata"],
									"properties": {
										"metadata": {
											"type": "object",
											"required": ["phone_number_id"],
											"properties": {
												"phone_number_id": {"const": %s}
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`

const payloadSchemaURL = "https://monika-notify.local/facebook/webhook-payload.schema.json"

// WebhookLogStore 由 repository.WebhookLogRepository 实现
type WebhookLogStore interface {
	Create(ctx context.Context, log *model.WebhookLog) error
	Count(ctx context.Context) (int64, error)
}

type FacebookOptions struct {
	PhoneID     string
	AppSecret   string
	VerifyToken string
}

// FacebookResult Error 非空时以 JSON 返回，否则返回纯文本 OK
type FacebookResult struct {
	Status int
	Error  string
}

type FacebookService struct {
	logs    WebhookLogStore
	opts    FacebookOptions
	schema  *jsonschema.Schema
	metrics *metrics.OTelMetrics
}

func NewFacebookService(logs WebhookLogStore, opts FacebookOptions, m *metrics.OTelMetrics) (*FacebookService, error) {
	if m == nil {
		m = metrics.Noop()
	}

	phoneID, err := json.Marshal(opts.PhoneID)
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(payloadSchemaURL, strings.NewReader(fmt.Sprintf(payloadSchemaTemplate, phoneID))); err != nil {
		return nil, fmt.Errorf("webhook payload schema load failed: %w", err)
	}
	schema, err := c.Compile(payloadSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("webhook payload schema compile failed: %w", err)
	}

	return &FacebookService{logs: logs, opts: opts, schema: schema, metrics: m}, nil
}

// Challenge 订阅校验，三个参数缺一返回 400
func (s *FacebookService) Challenge(query map[string]string) (int, string) {
	mode, okMode := query["hub.mode"]
	verifyToken, okToken := query["hub.verify_token"]
	challenge, okChallenge := query["hub.challenge"]
	if !okMode || !okToken || !okChallenge {
		return http.StatusBadRequest, challengeInvalid
	}

	if mode == "subscribe" && verifyToken == s.opts.VerifyToken {
		return http.StatusOK, challenge
	}
	return http.StatusBadRequest, challengeInvalid
}

// Handle 签名头 -> 请求体 -> phone_number_id -> 算法 -> HMAC -> 保存
// header 用于按名称读取请求头
func (s *FacebookService) Handle(ctx context.Context, header func(string) string, body []byte) (FacebookResult, error) {
	signature := header(headerSignature256)
	if signature == "" {
		signature = header(headerSignature)
	}
	if signature == "" {
		return s.reject(ctx, webhookNoSignature, msgNoSignature), nil
	}

	payload, ok := decodePayload(body)
	if !ok {
		return s.reject(ctx, webhookNoBody, msgNoBody), nil
	}

	if err := s.schema.Validate(payload); err != nil {
		logger.Logger.Debug("Ignoring webhook for another phone number", zap.Error(err))
		s.metrics.RecordWebhookEvent(ctx, webhookIgnored)
		return FacebookResult{Status: http.StatusOK}, nil
	}

	alg, _, _ := strings.Cut(signature, "=")
	if !strings.HasPrefix(alg, "sha") {
		return s.reject(ctx, webhookBadAlgorithm, msgNoSHAType), nil
	}

	if !utils.VerifyBodySignature(alg, s.opts.AppSecret, body, signature) {
		return s.reject(ctx, webhookBadSignature, msgSignatureInvalid), nil
	}

	if err := s.logs.Create(ctx, &model.WebhookLog{Logs: string(body)}); err != nil {
		return FacebookResult{}, fmt.Errorf("failed to save webhook log: %w", err)
	}

	s.metrics.RecordWebhookEvent(ctx, webhookSaved)
	return FacebookResult{Status: http.StatusOK}, nil
}

func (s *FacebookService) reject(ctx context.Context, outcome, message string) FacebookResult {
	logger.Logger.Warn("Facebook webhook rejected", zap.String("reason", message))
	s.metrics.RecordWebhookEvent(ctx, outcome)
	return FacebookResult{Status: http.StatusForbidden, Error: message}
}

// CountLogs 健康检查使用
func (s *FacebookService) CountLogs(ctx context.Context) (int64, error) {
	return s.logs.Count(ctx)
}

// decodePayload 空、null 或非法 JSON 视为没有请求体
func decodePayload(body []byte) (interface{}, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	// UseNumber 得到 jsonschema.Validate 需要的 json.Number
	var payload interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, false
	}
	return payload, true
}
