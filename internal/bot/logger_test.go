package bot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestSDKLogLevel(t *testing.T) {
	assert.Equal(t, larkcore.LogLevelDebug, sdkLogLevel(slog.LevelDebug))
	assert.Equal(t, larkcore.LogLevelInfo, sdkLogLevel(slog.LevelInfo))
	assert.Equal(t, larkcore.LogLevelWarn, sdkLogLevel(slog.LevelWarn))
	assert.Equal(t, larkcore.LogLevelError, sdkLogLevel(slog.LevelError))
}

func TestMaskingHandler(t *testing.T) {
	tests := []struct {
		name    string
		log     func(*slog.Logger)
		masked  string
		visible string
	}{
		{
			name:    "secret in message",
			log:     func(l *slog.Logger) { l.Info("using secret bt1JJe4iOy3L7ifs") },
			masked:  "bt1JJe4iOy3L7ifs",
			visible: "using secret ***",
		},
		{
			name:    "token in attribute",
			log:     func(l *slog.Logger) { l.Info("request", "auth", "Bearer t-g1044ghJWEHDVJ5XKX2C3PQJ") },
			masked:  "t-g1044ghJWEHDVJ5XKX2C3PQJ",
			visible: "auth=\"Bearer ***\"",
		},
		{
			name:    "secret in error",
			log:     func(l *slog.Logger) { l.Warn("failed", "err", errors.New("bad secret bt1JJe4iOy3L7ifs")) },
			masked:  "bt1JJe4iOy3L7ifs",
			visible: "bad secret ***",
		},
		{
			name:    "secret in group",
			log:     func(l *slog.Logger) { l.Info("cfg", slog.Group("app", "secret", "bt1JJe4iOy3L7ifs")) },
			masked:  "bt1JJe4iOy3L7ifs",
			visible: "app.secret=***",
		},
		{
			name:    "secret from LogValuer",
			log:     func(l *slog.Logger) { l.Info("cfg", "app", appSecretValuer("bt1JJe4iOy3L7ifs")) },
			masked:  "bt1JJe4iOy3L7ifs",
			visible: "app=***",
		},
		{
			name:    "secret in With",
			log:     func(l *slog.Logger) { l.With("secret", "bt1JJe4iOy3L7ifs").Info("hello") },
			masked:  "bt1JJe4iOy3L7ifs",
			visible: "secret=***",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, slog.LevelDebug, "bt1JJe4iOy3L7ifs", ""))
			assert.NotContains(t, buf.String(), tt.masked)
			assert.Contains(t, buf.String(), tt.visible)
		})
	}
}

type appSecretValuer string

func (v appSecretValuer) LogValue() slog.Value {
	return slog.StringValue(string(v))
}

func TestMaskingHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestSDKLogger(t *testing.T) {
	var buf bytes.Buffer
	sdk := NewSDKLogger(NewLogger(&buf, slog.LevelDebug, "s3cr3t-value"))
	ctx := context.Background()

	sdk.Debug(ctx, "[Debug] ", "token s3cr3t-value")
	sdk.Info(ctx, "info line")
	sdk.Warn(ctx, "warn line")
	sdk.Error(ctx, "error line")

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t-value")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "component=lark-sdk")
	assert.Contains(t, out, "warn line")
}
