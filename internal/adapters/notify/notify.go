// Package notify sends short operator summaries after scheduled jobs run.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Ops receives plain-text operator notices.
type Ops interface {
	Notify(ctx context.Context, text string) error
}

// LogOps writes notices to the log. Used when Telegram is not configured.
type LogOps struct{}

// Notify logs text.
func (LogOps) Notify(_ context.Context, text string) error {
	slog.Info("ops_notice", "text", text)
	return nil
}

// maxMessageLen is Telegram's limit on one text message.
const maxMessageLen = 4096

// TelegramOps posts notices to one Telegram chat.
type TelegramOps struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramOps authenticates the bot token against the Telegram API.
// PRE: token is a bot token; chatID is a chat the bot can post to
// POST: Returns an error if the token is rejected
func NewTelegramOps(token string, chatID int64) (*TelegramOps, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramOps(bot, chatID), nil
}

func newTelegramOps(bot *tgbotapi.BotAPI, chatID int64) *TelegramOps {
	slog.Info("telegram_connected", "bot", bot.Self.UserName, "chat_id", chatID)
	return &TelegramOps{bot: bot, chatID: chatID}
}

// Notify sends text, truncated to one message.
func (t *TelegramOps) Notify(_ context.Context, text string) error {
	if r := []rune(text); len(r) > maxMessageLen {
		text = string(r[:maxMessageLen-1]) + "…"
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
