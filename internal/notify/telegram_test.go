package notify

import (
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stellarlinkco/mentorbot/internal/config"
)

type fakeBot struct {
	sent []string
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func newFakeNotifier(t *testing.T, bot *fakeBot) *Telegram {
	t.Helper()
	n, err := NewTelegramWithFactory(
		config.TelegramConfig{Enabled: true, Token: "tok", ChatID: 42},
		func(token string) (TelegramBot, error) { return bot, nil },
	)
	if err != nil {
		t.Fatalf("NewTelegramWithFactory error: %v", err)
	}
	return n
}

func TestNotify(t *testing.T) {
	bot := &fakeBot{}
	n := newFakeNotifier(t, bot)

	if !n.Enabled() {
		t.Fatal("notifier should be enabled")
	}
	if err := n.Notify("acme/widgets#12: task created"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if len(bot.sent) != 1 || bot.sent[0] != "acme/widgets#12: task created" {
		t.Errorf("sent = %v", bot.sent)
	}
}

func TestNotifyDisabled(t *testing.T) {
	n, err := NewTelegram(config.TelegramConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled config must not error: %v", err)
	}
	if n.Enabled() {
		t.Error("disabled notifier reports enabled")
	}
	if err := n.Notify("anything"); err != nil {
		t.Errorf("disabled Notify errored: %v", err)
	}
}

func TestNotifyEnabledWithoutToken(t *testing.T) {
	_, err := NewTelegramWithFactory(
		config.TelegramConfig{Enabled: true},
		func(token string) (TelegramBot, error) { return &fakeBot{}, nil },
	)
	if err == nil {
		t.Fatal("enabled without token must error")
	}
}

func TestNotifyChunksLongMessages(t *testing.T) {
	bot := &fakeBot{}
	n := newFakeNotifier(t, bot)

	lines := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("x", 40))
	}
	text := strings.Join(lines, "\n")

	if err := n.Notify(text); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if len(bot.sent) < 2 {
		t.Fatalf("long message sent as %d chunk(s)", len(bot.sent))
	}
	for i, chunk := range bot.sent {
		if len(chunk) > 4000 {
			t.Errorf("chunk %d is %d bytes", i, len(chunk))
		}
	}
	joined := strings.Join(bot.sent, "")
	if strings.ReplaceAll(joined, "\n", "") != strings.ReplaceAll(text, "\n", "") {
		t.Error("chunks lost content")
	}
}

func TestNotifySendFailure(t *testing.T) {
	bot := &fakeBot{err: errors.New("telegram down")}
	n := newFakeNotifier(t, bot)

	if err := n.Notify("hello"); err == nil {
		t.Fatal("expected send error")
	}
}
