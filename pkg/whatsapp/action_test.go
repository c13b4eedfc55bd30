package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFor(t *testing.T) {
	cases := map[ActionKind]string{
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

	for kind, want := range cases {
		got, ok := TemplateFor(kind)
		assert.True(t, ok, kind)
		assert.Equal(t, want, got, kind)
	}

	_, ok := TemplateFor("reboot")
	assert.False(t, ok)
	assert.Len(t, AllKinds(), len(cases))
}

func TestParametersFor(t *testing.T) {
	incident := IncidentRecoveryInput{Alert: "a", URL: "u", Time: "t", Monika: "m"}

	cases := []struct {
		name  string
		kind  ActionKind
		input ActionInput
		want  []string
	}{
		{"confirmation", KindConfirmation, ConfirmationInput{Name: "n", ActivationLink: "l", ExpiredAt: "e"}, []string{"n", "l", "e"}},
		{"instruction duplicates webhook url", KindInstruction, InstructionInput{NotifyWebhookURL: "w", DocsURL: "d", DeleteWebhookURL: "x"}, []string{"w", "w", "d", "x"}},
		{"start", KindStart, StartTerminateInput{IPAddress: "127.0.0.1"}, []string{"127.0.0.1"}},
		{"terminate", KindTerminate, StartTerminateInput{IPAddress: "10.0.0.1"}, []string{"10.0.0.1"}},
		{"incident", KindIncident, incident, []string{"a", "u", "t", "m"}},
		{"recovery", KindRecovery, incident, []string{"a", "u", "t", "m"}},
		{"incident-symon", KindIncidentSymon, incident, []string{"a", "u", "t", "m"}},
		{"recovery-symon pointer input", KindRecoverySymon, &incident, []string{"a", "u", "t", "m"}},
		{"status-update", KindStatusUpdate, StatusUpdateInput{
			Time: "t", Monika: "m", NumberOfProbes: "1", AverageResponseTime: "2",
			NumberOfIncidents: "3", NumberOfRecoveries: "4", NumberOfSentNotifications: "5",
		}, []string{"t", "m", "1", "2", "3", "4", "5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParametersFor(tc.kind, tc.input))
		})
	}
}

func TestParametersForPanicsOnMisuse(t *testing.T) {
	assert.Panics(t, func() { ParametersFor("reboot", StartTerminateInput{}) })
	assert.Panics(t, func() { ParametersFor(KindStart, IncidentRecoveryInput{}) })
	assert.Panics(t, func() { ParametersFor(KindStart, (*StartTerminateInput)(nil)) })
}

func TestWithoutSymon(t *testing.T) {
	assert.Equal(t, KindIncident, KindIncidentSymon.WithoutSymon())
	assert.Equal(t, KindRecovery, KindRecoverySymon.WithoutSymon())
	assert.Equal(t, KindStart, KindStart.WithoutSymon())
	assert.True(t, KindStatusUpdate.IsValid())
	assert.False(t, ActionKind("incident-other").IsValid())
	assert.True(t, KindRecoverySymon.IsNotify())
	assert.False(t, KindConfirmation.IsNotify())
	assert.False(t, KindInstruction.IsNotify())
}
