package whatsapp

import (
	"context"
	"strconv"
	"sync"
)

type MockCall struct {
	Template string
	Params   []string
	To       string
}

// MockClient 可配置的 WhatsApp 客户端 mock，实现 Client 接口
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall

	// Response 非空时原样返回；Err 非空时返回该错误
	Response *MessageResponse
	Err      error
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make([]MockCall, 0),
	}
}

func (m *MockClient) Send(ctx context.Context, template string, params []string, to string) (*MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{
		Template: template,
		Params:   append([]string(nil), params...),
		To:       to,
	})

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}

	return &MessageResponse{
		MessagingProduct: messagingProduct,
		Contacts:         []MessageContact{{Input: to, WaID: to}},
		Messages:         []MessageID{{ID: "mock-message-" + strconv.Itoa(len(m.Calls))}},
	}, nil
}

// CallCount 返回已发送次数
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall 返回最近一次调用
func (m *MockClient) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return MockCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
