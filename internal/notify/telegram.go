// Package notify delivers catalog change messages to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMessageLimit is the maximum length of a Telegram text message.
const telegramMessageLimit = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts HTML messages to a single chat.
type Telegram struct {
	api    sender
	chatID int64
	log    *slog.Logger
}

// NewTelegram authorizes the bot token and returns a notifier for chatID.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("telegram bot authorized", slog.String("account", api.Self.UserName), slog.Int64("chat_id", chatID))
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api sender, chatID int64, log *slog.Logger) *Telegram {
	if log == nil {
		log = slog.Default()
	}
	return &Telegram{api: api, chatID: chatID, log: log}
}

// Notify sends text to the configured chat. Long messages are split on line
// boundaries.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, part := range splitMessage(text, telegramMessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	t.log.Debug("telegram message sent", slog.Int64("chat_id", t.chatID))
	return nil
}

func splitMessage(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	var parts []string
	var current strings.Builder
	currentLen := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := len([]rune(line))
		if currentLen > 0 && currentLen+lineLen > limit {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
		for lineLen > limit {
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	if currentLen > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// Nop discards every message. It is used when no bot token is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
