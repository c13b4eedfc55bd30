package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"MonikaNotify/config"
)

func TestGRPCEndpoint(t *testing.T) {
	assert.Equal(t, "collector:4317", grpcEndpoint("http://collector:4317"))
	assert.Equal(t, "collector:4317", grpcEndpoint("https://collector:4317"))
	assert.Equal(t, "collector:4317", grpcEndpoint("collector:4317"))
}

func TestFromConfig(t *testing.T) {
	got := FromConfig(&config.Config{
		ServiceName:     "monika-notify",
		ServiceVersion:  "1.0.0",
		Environment:     "production",
		OTelEndpoint:    "collector:4317",
		OTelSampleRatio: 0.5,
	})
	assert.Equal(t, Config{
		ServiceName:    "monika-notify",
		ServiceVersion: "1.0.0",
		Environment:    "production",
		OTLPEndpoint:   "collector:4317",
		SampleRatio:    0.5,
	}, got)

	attrs := ServiceAttributes("monika-notify", "1.0.0", "production")
	assert.Len(t, attrs, 4)
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{OTelEnabled: false})
	assert.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
