package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// AlertBot forwards error-level log records to a Telegram admin chat.
type AlertBot struct {
	bot    *gotgbot.Bot
	chatID int64
}

// NewAlertBot creates the Telegram alert sender.
func NewAlertBot(token string, adminID int64) (*AlertBot, error) {
	bot, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &AlertBot{bot: bot, chatID: adminID}, nil
}

// Send delivers one alert message to the admin chat.
func (a *AlertBot) Send(text string) error {
	_, err := a.bot.SendMessage(a.chatID, text, nil)
	return err
}

// telegramHandler is an slog.Handler decorator that mirrors records at or
// above its level to Telegram while delegating everything to the inner
// handler.
type telegramHandler struct {
	inner slog.Handler
	bot   *AlertBot
	level slog.Level
	attrs []slog.Attr
}

// SetupTelegramHandler wraps the logger so records at or above level are
// also sent to the admin chat. Delivery failures are ignored: alerting
// must never break the request path.
func SetupTelegramHandler(log *slog.Logger, bot *AlertBot, level slog.Level) *slog.Logger {
	if bot == nil {
		return log
	}
	return slog.New(&telegramHandler{inner: log.Handler(), bot: bot, level: level})
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.level && record.Level >= slog.LevelError {
		text := fmt.Sprintf("[%s] %s", record.Level, record.Message)
		for _, attr := range h.attrs {
			text += fmt.Sprintf("\n%s=%v", attr.Key, attr.Value)
		}
		record.Attrs(func(attr slog.Attr) bool {
			text += fmt.Sprintf("\n%s=%v", attr.Key, attr.Value)
			return true
		})
		go func() { _ = h.bot.Send(text) }()
	}
	return h.inner.Handle(ctx, record)
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &telegramHandler{inner: h.inner.WithAttrs(attrs), bot: h.bot, level: h.level, attrs: merged}
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	return &telegramHandler{inner: h.inner.WithGroup(name), bot: h.bot, level: h.level, attrs: h.attrs}
}
