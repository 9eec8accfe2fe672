package notifier

import (
	"context"
	"fmt"

	"vpnshop/config"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Telegram sends messages through the shop bot. It is send-only: inbound
// updates are handled by the chat layer, not here.
type Telegram struct {
	bot         *bot.Bot
	adminChatID int64
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	tgBot, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Telegram{bot: tgBot, adminChatID: cfg.AdminChatID}, nil
}

func (t *Telegram) NotifyUser(ctx context.Context, userID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

func (t *Telegram) NotifyAdmin(ctx context.Context, text string) error {
	if t.adminChatID == 0 {
		return nil
	}
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.adminChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}
