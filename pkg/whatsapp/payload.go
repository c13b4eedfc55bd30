package whatsapp

const (
	messagingProduct = "whatsapp"
	templateLanguage = "en"
)

// MessageRequest Cloud API 模板消息请求体
type MessageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         Template `json:"template"`
}

type Template struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components"`
}

type Language struct {
	Code string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTemplateMessage 构造只有 body 组件的模板消息
func NewTemplateMessage(template string, params []string, to string) MessageRequest {
	parameters := make([]Parameter, 0, len(params))
	for _, p := range params {
		parameters = append(parameters, Parameter{Type: "text", Text: p})
	}

	return MessageRequest{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "template",
		Template: Template{
			Name:     template,
			Language: Language{Code: templateLanguage},
			Components: []Component{
				{Type: "body", Parameters: parameters},
			},
		},
	}
}

// Valid mock server 用于校验请求体格式
func (m *MessageRequest) Valid() bool {
	if m.MessagingProduct != messagingProduct || m.Type != "template" || m.To == "" || m.Template.Name == "" {
		return false
	}
	if m.Template.Components == nil {
		return false
	}
	for _, c := range m.Template.Components {
		if c.Type != "body" || c.Parameters == nil {
			return false
		}
		for _, p := range c.Parameters {
			if p.Type != "text" {
				return false
			}
		}
	}
	return true
}

// MessageResponse Cloud API 发送成功时的响应
type MessageResponse struct {
	Meta             map[string]interface{} `json:"meta,omitempty"`
	MessagingProduct string                 `json:"messaging_product,omitempty"`
	Contacts         []MessageContact       `json:"contacts,omitempty"`
	Messages         []MessageID            `json:"messages"`
}

type MessageContact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type MessageID struct {
	ID string `json:"id"`
}

// Accepted 至少有一条消息 ID 才算平台已受理
func (r *MessageResponse) Accepted() bool {
	return r != nil && len(r.Messages) > 0
}

// FirstMessageID 返回第一条消息 ID
func (r *MessageResponse) FirstMessageID() string {
	if !r.Accepted() {
		return ""
	}
	return r.Messages[0].ID
}

// APIError Graph API 的错误结构
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

type APIErrorDetail struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}
