package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "mwn:lock:register:+62811", Key("lock", "register", "+62811"))
	assert.Equal(t, "mwn:ratelimit", Key("ratelimit", ""))
}

func TestTracingHookSpans(t *testing.T) {
	mr := miniredis.RunT(t)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	c.AddHook(&TracingHook{tracer: tp.Tracer("test")})

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", 0).Err())
	assert.ErrorIs(t, c.Get(ctx, "missing").Err(), redis.Nil)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "redis.set")
	assert.Contains(t, names, "redis.get")
}
