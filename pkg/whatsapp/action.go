package whatsapp

import (
	"fmt"
	"strings"
)

// ActionKind 通知动作类型，集合封闭
type ActionKind string

const (
	KindConfirmation  ActionKind = "confirmation"
	KindInstruction   ActionKind = "instruction"
	KindStart         ActionKind = "start"
	KindTerminate     ActionKind = "terminate"
	KindIncident      ActionKind = "incident"
	KindRecovery      ActionKind = "recovery"
	KindIncidentSymon ActionKind = "incident-symon"
	KindRecoverySymon ActionKind = "recovery-symon"
	KindStatusUpdate  ActionKind = "status-update"
)

const symonSuffix = "-symon"

// actionTemplates 动作到 WhatsApp 模板名的映射，模板需在 Meta 后台预先注册
var actionTemplates = map[ActionKind]string{
	KindConfirmation:  "confirmation",
	KindInstruction:   "instruction",
	KindStart:         "start_message",
	KindTerminate:     "termination",
	KindIncident:      "incident",
	KindRecovery:      "recovery",
	KindIncidentSymon: "incident_20240426",
	KindRecoverySymon: "recovery_20240426",
	KindStatusUpdate:  "status_update",
}

func (k ActionKind) IsValid() bool {
	_, ok := actionTemplates[k]
	return ok
}

// IsNotify 监控事件类型，确认与说明消息只由注册流程发送
func (k ActionKind) IsNotify() bool {
	return k.IsValid() && k != KindConfirmation && k != KindInstruction
}

func (k ActionKind) String() string {
	return string(k)
}

// WithoutSymon 去掉 -symon 后缀，incident-symon 按 incident 模板发送
func (k ActionKind) WithoutSymon() ActionKind {
	return ActionKind(strings.TrimSuffix(string(k), symonSuffix))
}

// AllKinds 返回全部动作类型
func AllKinds() []ActionKind {
	return []ActionKind{
		KindConfirmation,
		KindInstruction,
		KindStart,
		KindTerminate,
		KindIncident,
		KindRecovery,
		KindIncidentSymon,
		KindRecoverySymon,
		KindStatusUpdate,
	}
}

// TemplateFor 查询模板名，未知类型返回 false
func TemplateFor(kind ActionKind) (string, bool) {
	name, ok := actionTemplates[kind]
	return name, ok
}

// ActionInput 每种动作对应一种参数结构
type ActionInput interface {
	actionInput()
}

type ConfirmationInput struct {
	Name           string
	ActivationLink string
	ExpiredAt      string
}

type InstructionInput struct {
	NotifyWebhookURL string
	DocsURL          string
	DeleteWebhookURL string
}

type StartTerminateInput struct {
	IPAddress string
}

type IncidentRecoveryInput struct {
	Alert  string
	URL    string
	Time   string
	Monika string
}

type StatusUpdateInput struct {
	Time                      string
	Monika                    string
	NumberOfProbes            string
	AverageResponseTime       string
	NumberOfIncidents         string
	NumberOfRecoveries        string
	NumberOfSentNotifications string
}

func (ConfirmationInput) actionInput()     {}
func (InstructionInput) actionInput()      {}
func (StartTerminateInput) actionInput()   {}
func (IncidentRecoveryInput) actionInput() {}
func (StatusUpdateInput) actionInput()     {}

// ParametersFor 按模板注册时的顺序生成参数列表。
// 类型与参数结构不匹配属于调用方的编程错误，直接 panic。
func ParametersFor(kind ActionKind, input ActionInput) []string {
	switch kind {
	case KindConfirmation:
		in := mustInput[ConfirmationInput](kind, input)
		return []string{in.Name, in.ActivationLink, in.ExpiredAt}
	case KindInstruction:
		in := mustInput[InstructionInput](kind, input)
		// 模板中 webhook 地址展示两次
		return []string{in.NotifyWebhookURL, in.NotifyWebhookURL, in.DocsURL, in.DeleteWebhookURL}
	case KindStart, KindTerminate:
		in := mustInput[StartTerminateInput](kind, input)
		return []string{in.IPAddress}
	case KindIncident, KindRecovery, KindIncidentSymon, KindRecoverySymon:
		in := mustInput[IncidentRecoveryInput](kind, input)
		return []string{in.Alert, in.URL, in.Time, in.Monika}
	case KindStatusUpdate:
		in := mustInput[StatusUpdateInput](kind, input)
		return []string{
			in.Time,
			in.Monika,
			in.NumberOfProbes,
			in.AverageResponseTime,
			in.NumberOfIncidents,
			in.NumberOfRecoveries,
			in.NumberOfSentNotifications,
		}
	default:
		panic(fmt.Sprintf("whatsapp: no parameter mapping for action kind %q", kind))
	}
}

func mustInput[T ActionInput](kind ActionKind, input ActionInput) T {
	switch in := any(input).(type) {
	case T:
		return in
	case *T:
		if in != nil {
			return *in
		}
	}
	var zero T
	panic(fmt.Sprintf("whatsapp: action kind %q expects %T, got %T", kind, zero, input))
}
