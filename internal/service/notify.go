package service

import (
	"context"
	stderrors "errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"MonikaNotify/internal/model"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/metrics"
	"MonikaNotify/pkg/whatsapp"
)

const messageSent = "Message sent"

// NotifyResult 通知接口的响应体，HTTP 状态码与 Status 一致
type NotifyResult struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"status"`
}

// TokenFinder 由 repository.WebhookTokenRepository 实现
type TokenFinder interface {
	GetByToken(ctx context.Context, token string) (*model.WebhookToken, error)
}

// UserFinder 由 repository.UserRepository 实现
type UserFinder interface {
	GetByPhoneHash(ctx context.Context, phoneHash string) (*model.User, error)
}

// Dispatcher 由 DispatchService 实现
type Dispatcher interface {
	Dispatch(ctx context.Context, phone string, kind whatsapp.ActionKind, input whatsapp.ActionInput) (*whatsapp.MessageResponse, error)
}

type NotifyService struct {
	tokens     TokenFinder
	users      UserFinder
	dispatcher Dispatcher
	recorder   OutcomeRecorder
	metrics    *metrics.OTelMetrics
	now        func() time.Time
}

func NewNotifyService(tokens TokenFinder, users UserFinder, dispatcher Dispatcher, recorder OutcomeRecorder, m *metrics.OTelMetrics) *NotifyService {
	if m == nil {
		m = metrics.Noop()
	}
	return &NotifyService{
		tokens:     tokens,
		users:      users,
		dispatcher: dispatcher,
		recorder:   recorder,
		metrics:    m,
		now:        time.Now,
	}
}

func reject(def errors.Definition, status int) NotifyResult {
	return NotifyResult{Error: def.Code, Status: status}
}

// Notify token 校验 -> 请求体校验 -> token 查询 -> 用户查询 -> 发送
// 进入发送阶段后总是返回 200，发送结果只记录不返回
// 返回 error 仅表示存储层故障
func (s *NotifyService) Notify(ctx context.Context, token string, hasToken bool, body []byte) (NotifyResult, error) {
	if !hasToken || token == "" {
		s.metrics.RecordNotifyRequest(ctx, "", errors.TokenNotFound.Code)
		return reject(errors.TokenNotFound, http.StatusUnauthorized), nil
	}

	req, err := model.ParseNotifyBody(body)
	if err != nil {
		logger.Logger.Info("Rejected notify request body", zap.Error(err))
		s.metrics.RecordNotifyRequest(ctx, "", errors.InvalidRequestBody.Code)
		return reject(errors.InvalidRequestBody, http.StatusBadRequest), nil
	}
	kind := req.Kind()

	wt, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.RecordNotifyRequest(ctx, kind.String(), errors.TokenNotFound.Code)
			return reject(errors.TokenNotFound, http.StatusUnauthorized), nil
		}
		return NotifyResult{}, err
	}

	user, err := s.users.GetByPhoneHash(ctx, wt.User)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.RecordNotifyRequest(ctx, kind.String(), errors.UserNotFound.Code)
			return reject(errors.UserNotFound, http.StatusUnauthorized), nil
		}
		return NotifyResult{}, err
	}

	s.metrics.RecordNotifyRequest(ctx, kind.String(), "")

	var resp *whatsapp.MessageResponse
	switch b := req.(type) {
	case *model.StartTerminateBody:
		resp, err = s.dispatcher.Dispatch(ctx, user.PhoneHash, b.Type, whatsapp.StartTerminateInput{
			IPAddress: b.IPAddress,
		})
	case *model.IncidentRecoveryBody:
		resp, err = s.dispatcher.Dispatch(ctx, user.PhoneHash, b.Type.WithoutSymon(), whatsapp.IncidentRecoveryInput{
			Alert:  b.Alert,
			URL:    b.URL,
			Time:   b.Time,
			Monika: b.Monika,
		})
	case *model.StatusUpdateBody:
		resp, err = s.dispatcher.Dispatch(ctx, user.PhoneHash, b.Type, whatsapp.StatusUpdateInput{
			Time:                      b.Time,
			Monika:                    b.Monika,
			NumberOfProbes:            formatNumber(b.NumberOfProbes),
			AverageResponseTime:       formatNumber(b.AverageResponseTime),
			NumberOfIncidents:         formatNumber(b.NumberOfIncidents),
			NumberOfRecoveries:        formatNumber(b.NumberOfRecoveries),
			NumberOfSentNotifications: formatNumber(b.NumberOfSentNotifications),
		})
	}

	s.record(ctx, Outcome{
		UserID:     user.ID,
		Kind:       kind,
		Response:   resp,
		Err:        err,
		OccurredAt: s.now(),
	})

	return NotifyResult{Message: messageSent, Status: http.StatusOK}, nil
}

func (s *NotifyService) record(ctx context.Context, o Outcome) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, o); err != nil {
		s.metrics.RecordOutcomeError(ctx, o.Kind.String())
		logger.Logger.Warn("Failed to record notify outcome",
			zap.Int64("user_id", o.UserID),
			zap.String("kind", o.Kind.String()),
			zap.Error(err),
		)
	}
}

// formatNumber 最短表示，整数不带小数点：10 而不是 10.000000。
// 绝对值 >= 1e21 或 < 1e-6 时改用指数形式，指数不补零：1e+21、1e-7
func formatNumber(v float64) string {
	if abs := math.Abs(v); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		return strings.Replace(s, "e-0", "e-", 1)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
