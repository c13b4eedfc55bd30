package whatsapp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateMessageIsValid(t *testing.T) {
	msg := NewTemplateMessage("incident", []string{"a", "b"}, "+62811")
	assert.True(t, msg.Valid())

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messaging_product":"whatsapp","to":"+62811","type":"template",
		"template":{"name":"incident","language":{"code":"en"},
			"components":[{"type":"body","parameters":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}]}
	}`, string(raw))
}

func TestMessageRequestValid(t *testing.T) {
	cases := map[string]string{
		"wrong product":    `{"messaging_product":"sms","to":"+1","type":"template","template":{"name":"x","language":{"code":"en"},"components":[]}}`,
		"missing to":       `{"messaging_product":"whatsapp","type":"template","template":{"name":"x","language":{"code":"en"},"components":[]}}`,
		"text type":        `{"messaging_product":"whatsapp","to":"+1","type":"text","template":{"name":"x","language":{"code":"en"},"components":[]}}`,
		"no components":    `{"messaging_product":"whatsapp","to":"+1","type":"template","template":{"name":"x","language":{"code":"en"}}}`,
		"header component": `{"messaging_product":"whatsapp","to":"+1","type":"template","template":{"name":"x","language":{"code":"en"},"components":[{"type":"header","parameters":[]}]}}`,
		"image parameter":  `{"messaging_product":"whatsapp","to":"+1","type":"template","template":{"name":"x","language":{"code":"en"},"components":[{"type":"body","parameters":[{"type":"image"}]}]}}`,
	}

	for name, body := range cases {
		var msg MessageRequest
		require.NoError(t, json.Unmarshal([]byte(body), &msg), name)
		assert.False(t, msg.Valid(), name)
	}
}
