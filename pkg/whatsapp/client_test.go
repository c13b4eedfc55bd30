package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MonikaNotify/config"
	"MonikaNotify/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(Options{
		BaseURL:     srv.URL + "/",
		PhoneID:     "12345",
		AccessToken: "secret",
		Timeout:     2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestSendBuildsTemplatePayload(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody MessageRequest
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","meta":{"api_status":"stable"},"messages":[{"id":"wamid.1"}]}`))
	})

	resp, err := c.Send(context.Background(), "start_message", []string{"127.0.0.1"}, "+628123456789")
	require.NoError(t, err)

	assert.Equal(t, "/12345/messages", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, NewTemplateMessage("start_message", []string{"127.0.0.1"}, "+628123456789"), gotBody)
	assert.Equal(t, "en", gotBody.Template.Language.Code)
	assert.Equal(t, "wamid.1", resp.FirstMessageID())
	assert.Equal(t, "stable", resp.Meta["api_status"])
}

func TestSendNonSuccessStatusIsFetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
	})

	resp, err := c.Send(context.Background(), "incident", []string{"a", "u", "t", "m"}, "+1")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, errors.FetchError)
}

func TestSendUndecodableBodyIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	resp, err := c.Send(context.Background(), "incident", nil, "+1")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, errors.ParseJSONError)
}

func TestSendUnreachableHostIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(Options{BaseURL: url, PhoneID: "1", AccessToken: "x", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "incident", nil, "+1")
	assert.ErrorIs(t, err, errors.FetchError)
}

func TestNewSelectsProvider(t *testing.T) {
	c, err := New(&config.Config{WhatsAppProvider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	c, err = New(&config.Config{WhatsAppProvider: "cloud", WhatsAppAPIURL: "https://graph.facebook.com/v21.0"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, c)

	_, err = New(&config.Config{WhatsAppProvider: "sms"})
	assert.Error(t, err)
}

func TestMockClientRecordsCalls(t *testing.T) {
	m := NewMockClient()
	resp, err := m.Send(context.Background(), "recovery", []string{"a"}, "+62")
	require.NoError(t, err)
	assert.True(t, resp.Accepted())

	m.Err = errors.FetchError
	_, err = m.Send(context.Background(), "recovery", []string{"b"}, "+62")
	assert.ErrorIs(t, err, errors.FetchError)

	last, ok := m.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, last.Params)
	assert.Equal(t, 2, m.CallCount())
}
