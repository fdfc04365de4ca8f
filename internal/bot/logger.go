package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
)

// ParseLevel maps a config log level to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log level must be one of debug, info, warn, error; got %q", level)
}

func sdkLogLevel(level slog.Level) larkcore.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return larkcore.LogLevelDebug
	case level <= slog.LevelInfo:
		return larkcore.LogLevelInfo
	case level <= slog.LevelWarn:
		return larkcore.LogLevelWarn
	default:
		return larkcore.LogLevelError
	}
}

// NewLogger returns a text logger on w whose output never contains the
// given secrets or tenant access tokens.
func NewLogger(w io.Writer, level slog.Level, secrets ...string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewMaskingHandler(h, secrets...))
}

// MaskingHandler wraps a slog.Handler and masks credentials in the message
// and in string attributes.
type MaskingHandler struct {
	handler slog.Handler
	secrets []string
}

func NewMaskingHandler(handler slog.Handler, secrets ...string) *MaskingHandler {
	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return &MaskingHandler{handler: handler, secrets: nonEmpty}
}

// tenant and user access tokens issued by the Open Platform
var accessTokenPattern = regexp.MustCompile(`\b[tu]-[A-Za-z0-9_-]{16,}`)

const mask = "***"

func (h *MaskingHandler) mask(s string) string {
	for _, secret := range h.secrets {
		s = strings.ReplaceAll(s, secret, mask)
	}
	return accessTokenPattern.ReplaceAllString(s, mask)
}

func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.mask(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		masked := make([]any, len(attrs))
		for i, ga := range attrs {
			masked[i] = h.maskAttr(ga)
		}
		return slog.Group(a.Key, masked...)
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.mask(err.Error()))
		}
	}
	return a
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	r := slog.NewRecord(record.Time, record.Level, h.mask(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, r)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.maskAttr(a)
	}
	return &MaskingHandler{handler: h.handler.WithAttrs(masked), secrets: h.secrets}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{handler: h.handler.WithGroup(name), secrets: h.secrets}
}

// SDKLogger adapts a slog.Logger to the SDK's larkcore.Logger.
type SDKLogger struct {
	logger *slog.Logger
}

func NewSDKLogger(logger *slog.Logger) *SDKLogger {
	return &SDKLogger{logger: logger.With("component", "lark-sdk")}
}

func (l *SDKLogger) Debug(ctx context.Context, args ...interface{}) {
	l.logger.DebugContext(ctx, strings.TrimSpace(fmt.Sprint(args...)))
}

func (l *SDKLogger) Info(ctx context.Context, args ...interface{}) {
	l.logger.InfoContext(ctx, strings.TrimSpace(fmt.Sprint(args...)))
}

func (l *SDKLogger) Warn(ctx context.Context, args ...interface{}) {
	l.logger.WarnContext(ctx, strings.TrimSpace(fmt.Sprint(args...)))
}

func (l *SDKLogger) Error(ctx context.Context, args ...interface{}) {
	l.logger.ErrorContext(ctx, strings.TrimSpace(fmt.Sprint(args...)))
}
