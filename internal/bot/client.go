package bot

import (
	"log/slog"

	"github.com/google/uuid"
	lark "github.com/larksuite/oapi-sdk-go/v3"
)

// Bot wraps the Lark Open Platform client. Every method is a single call
// (or a paged sequence of calls) into the SDK.
type Bot struct {
	client  *lark.Client
	logger  *slog.Logger
	newUUID func() string
}

// NewClient builds an SDK client from cfg, routing SDK logs through logger.
func NewClient(cfg Config, logger *slog.Logger) *lark.Client {
	level, _ := ParseLevel(cfg.LogLevel)
	return lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithOpenBaseUrl(cfg.BaseURL),
		lark.WithReqTimeout(cfg.RequestTimeout()),
		lark.WithLogger(NewSDKLogger(logger)),
		lark.WithLogLevel(sdkLogLevel(level)),
	)
}

func New(cfg Config, logger *slog.Logger) *Bot {
	return NewFromClient(NewClient(cfg, logger), logger)
}

func NewFromClient(client *lark.Client, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		client:  client,
		logger:  logger,
		newUUID: uuid.NewString,
	}
}

// fail logs a platform failure and returns it as an *APIError.
func (b *Bot) fail(op string, code int, msg, requestID string) error {
	b.logger.Warn("lark API failed", "op", op, "code", code, "msg", msg, "request_id", requestID)
	return &APIError{Op: op, Code: code, Msg: msg, RequestID: requestID}
}
