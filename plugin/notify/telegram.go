package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// TelegramChannel announces suggestions in a staff chat via the Bot API.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramChannel(botToken string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string {
	return "telegram"
}

func (t *TelegramChannel) Send(_ context.Context, event *Event) error {
	text := fmt.Sprintf(
		"Possible match (%.0f%%)\nLost: %s\nFound: %s\nCategory: %s",
		event.Score*100, event.LostTitle, event.FoundTitle, event.Category,
	)
	message := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(message); err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}
	return nil
}
