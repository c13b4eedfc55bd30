package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MonikaNotify/internal/model"
	"MonikaNotify/utils"
)

type fakeWebhookLogs struct {
	saved []*model.WebhookLog
}

func (f *fakeWebhookLogs) Create(ctx context.Context, log *model.WebhookLog) error {
	f.saved = append(f.saved, log)
	return nil
}

func (f *fakeWebhookLogs) Count(ctx context.Context) (int64, error) {
	return int64(len(f.saved)), nil
}

const (
	fbSecret  = "app-secret"
	fbPhoneID = "1234567890"
	fbPayload = `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"metadata":{"display_phone_number":"1555","phone_number_id":"1234567890"}}}]}]}`
)

func newFacebook(t *testing.T) (*FacebookService, *fakeWebhookLogs) {
	t.Helper()
	logs := &fakeWebhookLogs{}
	s, err := NewFacebookService(logs, FacebookOptions{
		PhoneID:     fbPhoneID,
		AppSecret:   fbSecret,
		VerifyToken: "verify-me",
	}, nil)
	require.NoError(t, err)
	return s, logs
}

func headers(kv map[string]string) func(string) string {
	return func(name string) string { return kv[name] }
}

func sign(t *testing.T, alg, body string) string {
	t.Helper()
	sig, ok := utils.SignBody(alg, fbSecret, []byte(body))
	require.True(t, ok)
	return sig
}

func TestFacebookChallenge(t *testing.T) {
	s, _ := newFacebook(t)

	status, text := s.Challenge(map[string]string{"hub.mode": "subscribe", "hub.verify_token": "verify-me", "hub.challenge": "1158201444"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1158201444", text)

	status, text = s.Challenge(map[string]string{"hub.mode": "subscribe", "hub.verify_token": "wrong", "hub.challenge": "1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid token", text)

	status, _ = s.Challenge(map[string]string{"hub.mode": "subscribe", "hub.verify_token": "verify-me"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFacebookHandleSavesSignedPayload(t *testing.T) {
	for _, alg := range []string{"sha1", "sha256", "sha512"} {
		s, logs := newFacebook(t)
		name := "x-hub-signature-256"
		if alg == "sha1" {
			name = "x-hub-signature"
		}

		res, err := s.Handle(context.Background(), headers(map[string]string{name: sign(t, alg, fbPayload)}), []byte(fbPayload))
		require.NoError(t, err)
		assert.Equal(t, FacebookResult{Status: http.StatusOK}, res, alg)
		require.Len(t, logs.saved, 1)
		assert.Equal(t, fbPayload, logs.saved[0].Logs)
	}
}

func TestFacebookHandleRejections(t *testing.T) {
	s, logs := newFacebook(t)
	ctx := context.Background()

	res, _ := s.Handle(ctx, headers(nil), []byte(fbPayload))
	assert.Equal(t, FacebookResult{Status: http.StatusForbidden, Error: "No X-Hub-Signature or X-Hub-Signature-256 headers provided"}, res)

	for _, body := range []string{"", "null", "{oops"} {
		res, _ = s.Handle(ctx, headers(map[string]string{"x-hub-signature-256": "sha256=00"}), []byte(body))
		assert.Equal(t, FacebookResult{Status: http.StatusForbidden, Error: "No body provided"}, res, body)
	}

	res, _ = s.Handle(ctx, headers(map[string]string{"x-hub-signature-256": "md5=00"}), []byte(fbPayload))
	assert.Equal(t, FacebookResult{Status: http.StatusForbidden, Error: "No SHA type provided"}, res)

	res, _ = s.Handle(ctx, headers(map[string]string{"x-hub-signature-256": "sha256=deadbeef"}), []byte(fbPayload))
	assert.Equal(t, FacebookResult{Status: http.StatusForbidden, Error: "Signature does not match"}, res)

	res, _ = s.Handle(ctx, headers(map[string]string{"x-hub-signature-256": "sha999=00"}), []byte(fbPayload))
	assert.Equal(t, FacebookResult{Status: http.StatusForbidden, Error: "Signature does not match"}, res)

	assert.Empty(t, logs.saved)
}

func TestFacebookHandleIgnoresOtherPhoneNumbers(t *testing.T) {
	s, logs := newFacebook(t)
	other := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"999"}}}]}]}`

	// 号码不匹配时不校验签名
	res, err := s.Handle(context.Background(), headers(map[string]string{"x-hub-signature-256": "sha256=bad"}), []byte(other))
	require.NoError(t, err)
	assert.Equal(t, FacebookResult{Status: http.StatusOK}, res)
	assert.Empty(t, logs.saved)

	n, err := s.CountLogs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecodePayload(t *testing.T) {
	for _, body := range []string{"", "   ", "null", "{bad"} {
		_, ok := decodePayload([]byte(body))
		assert.False(t, ok, "body %q", body)
	}

	payload, ok := decodePayload([]byte(`{"entry":[{"id":12}]}`))
	require.True(t, ok)
	entry := payload.(map[string]interface{})["entry"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, json.Number("12"), entry["id"])
}
