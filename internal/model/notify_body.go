package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"MonikaNotify/pkg/whatsapp"
)

// NotifyBody 通知接口请求体，按 type 字段区分三种形态
type NotifyBody interface {
	Kind() whatsapp.ActionKind
}

// StartTerminateBody start / terminate
type StartTerminateBody struct {
	Type      whatsapp.ActionKind
	IPAddress string
}

func (b *StartTerminateBody) Kind() whatsapp.ActionKind { return b.Type }

// IncidentRecoveryBody incident / recovery 以及对应的 -symon 别名
type IncidentRecoveryBody struct {
	Type   whatsapp.ActionKind
	Alert  string
	URL    string
	Time   string
	Monika string
}

func (b *IncidentRecoveryBody) Kind() whatsapp.ActionKind { return b.Type }

// StatusUpdateBody status-update，五个统计字段为数值
type StatusUpdateBody struct {
	Type                      whatsapp.ActionKind
	Time                      string
	Monika                    string
	NumberOfProbes            float64
	AverageResponseTime       float64
	NumberOfIncidents         float64
	NumberOfRecoveries        float64
	NumberOfSentNotifications float64
}

func (b *StatusUpdateBody) Kind() whatsapp.ActionKind { return b.Type }

// BodyError 请求体校验失败的字段信息
type BodyError struct {
	Field  string
	Reason string
}

func (e *BodyError) Error() string {
	if e.Field == "" {
		return "invalid request body: " + e.Reason
	}
	return fmt.Sprintf("invalid request body: %s %s", e.Field, e.Reason)
}

// ParseNotifyBody 先读取 type，再按 type 要求的字段逐个解析；多余字段忽略
func ParseNotifyBody(raw []byte) (NotifyBody, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &BodyError{Reason: "must be a JSON object"}
	}

	typ, err := stringField(fields, "type")
	if err != nil {
		return nil, err
	}

	kind := whatsapp.ActionKind(typ)
	switch kind {
	case whatsapp.KindStart, whatsapp.KindTerminate:
		ip, err := stringField(fields, "ip_address")
		if err != nil {
			return nil, err
		}
		return &StartTerminateBody{Type: kind, IPAddress: ip}, nil

	case whatsapp.KindIncident, whatsapp.KindRecovery,
		whatsapp.KindIncidentSymon, whatsapp.KindRecoverySymon:
		b := &IncidentRecoveryBody{Type: kind}
		for _, f := range []struct {
			name string
			dst  *string
		}{
			{"alert", &b.Alert},
			{"url", &b.URL},
			{"time", &b.Time},
			{"monika", &b.Monika},
		} {
			if *f.dst, err = stringField(fields, f.name); err != nil {
				return nil, err
			}
		}
		return b, nil

	case whatsapp.KindStatusUpdate:
		b := &StatusUpdateBody{Type: kind}
		if b.Time, err = stringField(fields, "time"); err != nil {
			return nil, err
		}
		if b.Monika, err = stringField(fields, "monika"); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"numberOfProbes", &b.NumberOfProbes},
			{"averageResponseTime", &b.AverageResponseTime},
			{"numberOfIncidents", &b.NumberOfIncidents},
			{"numberOfRecoveries", &b.NumberOfRecoveries},
			{"numberOfSentNotifications", &b.NumberOfSentNotifications},
		} {
			if *f.dst, err = numberField(fields, f.name); err != nil {
				return nil, err
			}
		}
		return b, nil

	default:
		return nil, &BodyError{Field: "type", Reason: fmt.Sprintf("unsupported value %q", typ)}
	}
}

var jsonNull = []byte("null")

func present(fields map[string]json.RawMessage, name string) (json.RawMessage, error) {
	v, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(v), jsonNull) {
		return nil, &BodyError{Field: name, Reason: "is required"}
	}
	return v, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	v, err := present(fields, name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &BodyError{Field: name, Reason: "must be a string"}
	}
	return s, nil
}

func numberField(fields map[string]json.RawMessage, name string) (float64, error) {
	v, err := present(fields, name)
	if err != nil {
		return 0, err
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, &BodyError{Field: name, Reason: "must be a number"}
	}
	return n, nil
}
