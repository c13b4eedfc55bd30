package errors

import stderrors "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 通知接口错误。
var (
	TokenNotFound      = Definition{Code: "TOKEN_NOT_FOUND", Message: "Token not found"}
	InvalidRequestBody = Definition{Code: "INVALID_REQUEST_BODY", Message: "Invalid request body"}
	UserNotFound       = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
)

// WhatsApp 发送错误。
var (
	FetchError               = Definition{Code: "FETCH_ERROR", Message: "WhatsApp API request failed"}
	ParseJSONError           = Definition{Code: "PARSE_JSON_ERROR", Message: "WhatsApp API response could not be decoded"}
	WhatsAppTemplateNotFound = Definition{Code: "WHATSAPP_TEMPLATE_NOT_FOUND", Message: "WhatsApp template not found"}
	WhatsAppSendMessageError = Definition{Code: "WHATSAPP_SEND_MESSAGE_ERROR", Message: "WhatsApp did not accept the message"}
)

// 注册流程错误。
var (
	InvalidData                  = Definition{Code: "INVALID_DATA", Message: "Invalid data"}
	InvalidToken                 = Definition{Code: "INVALID_TOKEN", Message: "Invalid or expired token"}
	PhoneNumberAlreadyRegistered = Definition{Code: "PHONE_NUMBER_ALREADY_REGISTERED", Message: "Phone number already registered"}
	RegistrationAlreadyAttempted = Definition{Code: "REGISTRATION_ALREADY_ATTEMPTED", Message: "Registration already attempted, check your WhatsApp"}
	WebhookNotFound              = Definition{Code: "WEBHOOK_NOT_FOUND", Message: "Webhook not found"}
	WebhookResendTooSoon         = Definition{Code: "WEBHOOK_RESEND_TOO_SOON", Message: "Webhook resend requested too soon"}
	WebhookTokenNotFound         = Definition{Code: "WEBHOOK_TOKEN_NOT_FOUND", Message: "Webhook token not found"}
)

// 通用错误。
var (
	TooManyRequests  = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	EndpointNotFound = Definition{Code: "ENDPOINT_NOT_FOUND", Message: "Endpoint not found"}
	InternalError    = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	TokenNotFound.Code:                TokenNotFound,
	InvalidRequestBody.Code:           InvalidRequestBody,
	UserNotFound.Code:                 UserNotFound,
	FetchError.Code:                   FetchError,
	ParseJSONError.Code:               ParseJSONError,
	WhatsAppTemplateNotFound.Code:     WhatsAppTemplateNotFound,
	WhatsAppSendMessageError.Code:     WhatsAppSendMessageError,
	InvalidData.Code:                  InvalidData,
	InvalidToken.Code:                 InvalidToken,
	PhoneNumberAlreadyRegistered.Code: PhoneNumberAlreadyRegistered,
	RegistrationAlreadyAttempted.Code: RegistrationAlreadyAttempted,
	WebhookNotFound.Code:              WebhookNotFound,
	WebhookResendTooSoon.Code:         WebhookResendTooSoon,
	WebhookTokenNotFound.Code:         WebhookTokenNotFound,
	TooManyRequests.Code:              TooManyRequests,
	EndpointNotFound.Code:             EndpointNotFound,
	InternalError.Code:                InternalError,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// CodeOf 返回 err 链上的业务错误码，非 Definition 返回空串
func CodeOf(err error) string {
	if def, ok := As(err); ok {
		return def.Code
	}
	return ""
}

// As 在错误链中查找 Definition
func As(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}

// SkipMessageError 消费者返回该错误时消息直接 ack，不再重新入队
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

func IsSkipMessageError(err error) bool {
	var skip *SkipMessageError
	return stderrors.As(err, &skip)
}
