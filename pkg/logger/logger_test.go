package logger

import (
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"MonikaNotify/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseZapLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseZapLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseZapLevel("verbose"))
	assert.Equal(t, hlog.LevelError, toHlogLevel(zapcore.ErrorLevel))
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	Init(&config.Config{
		LoggerLevel:      "DEBUG",
		LoggerFormat:     "json",
		LoggerOutputPath: path,
		Environment:      "test",
		ServiceName:      "monika-notify",
	})
	t.Cleanup(Sync)

	require.NotNil(t, Logger)
	Logger.Info("hello")
	assert.FileExists(t, path)
}
