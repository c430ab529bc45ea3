package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestTelegramNotify(t *testing.T) {
	api := &fakeSender{}
	tg := newTelegram(api, 1234, nil)

	require.NoError(t, tg.Notify(context.Background(), "  🆕 <b>Widget</b> added  "))
	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(1234), api.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, api.sent[0].ParseMode)
	assert.Equal(t, "🆕 <b>Widget</b> added", api.sent[0].Text)

	require.NoError(t, tg.Notify(context.Background(), "   "))
	assert.Len(t, api.sent, 1)
}

func TestTelegramNotifyError(t *testing.T) {
	tg := newTelegram(&fakeSender{err: errors.New("boom")}, 1, nil)
	err := tg.Notify(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTelegramNotifyCancelled(t *testing.T) {
	api := &fakeSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTelegram(api, 1, nil).Notify(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	text := "aaaa\nbbbb\ncccc"
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, splitMessage(text, 10))

	long := strings.Repeat("x", 25)
	parts := splitMessage(long, 10)
	require.Len(t, parts, 3)
	assert.Equal(t, strings.Repeat("x", 10), parts[0])
	assert.Equal(t, strings.Repeat("x", 5), parts[2])
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(context.Background(), "ignored"))
}
