// Package notify pushes operator notifications about task lifecycle
// transitions to a Telegram chat. Notifications are best-effort; a failed
// send never affects event handling.
package notify

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stellarlinkco/mentorbot/internal/config"
)

// TelegramBot is the slice of the bot API the notifier uses (allows mocking).
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotFactory creates TelegramBot instances.
type BotFactory func(token string) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token string) (TelegramBot, error) {
	return tgbotapi.NewBotAPI(token)
}

// Telegram sends plain-text notifications to one configured chat. The zero
// value and a disabled config both produce a no-op notifier.
type Telegram struct {
	bot    TelegramBot
	chatID int64
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	return NewTelegramWithFactory(cfg, defaultBotFactory)
}

// NewTelegramWithFactory creates a Telegram notifier with a custom bot
// factory (for testing).
func NewTelegramWithFactory(cfg config.TelegramConfig, factory BotFactory) (*Telegram, error) {
	if !cfg.Enabled {
		return &Telegram{}, nil
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required when notifications are enabled")
	}
	bot, err := factory(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Printf("[telegram] notifier ready for chat %d", cfg.ChatID)
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

// Enabled reports whether sends will actually go anywhere.
func (t *Telegram) Enabled() bool { return t != nil && t.bot != nil }

// Notify sends one text message, chunked under Telegram's message limit.
func (t *Telegram) Notify(text string) error {
	if !t.Enabled() {
		return nil
	}

	const maxLen = 4000
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			idx := strings.LastIndex(chunk[:maxLen], "\n")
			if idx > 0 {
				chunk = chunk[:idx]
			} else {
				chunk = chunk[:maxLen]
			}
		}
		text = text[len(chunk):]

		msg := tgbotapi.NewMessage(t.chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}
