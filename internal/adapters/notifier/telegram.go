package notifier

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/metrics"
)

var _ domain.Notifier = (*Telegram)(nil)

// Telegram реализует domain.Notifier через Bot API.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram создаёт нотификатор.
func NewTelegram(bot *tgbotapi.BotAPI) *Telegram {
	return &Telegram{bot: bot}
}

// Send отправляет новое сообщение и возвращает его хэндл.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string) (domain.MessageHandle, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := t.bot.Send(msg)
	if err != nil {
		metrics.BotSendErrors.Inc()
		return domain.MessageHandle{}, fmt.Errorf("отправка сообщения: %w", err)
	}
	return domain.MessageHandle{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit редактирует ранее отправленное сообщение. Если Telegram больше не
// позволяет его менять, возвращает domain.ErrNotEditable.
func (t *Telegram) Edit(ctx context.Context, handle domain.MessageHandle, text string) error {
	edit := tgbotapi.NewEditMessageText(handle.ChatID, handle.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(edit); err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "message is not modified") {
			return nil
		}
		if isNotEditable(msg) {
			return domain.ErrNotEditable
		}
		metrics.BotSendErrors.Inc()
		return fmt.Errorf("редактирование сообщения: %w", err)
	}
	return nil
}

func isNotEditable(lowered string) bool {
	return strings.Contains(lowered, "message can't be edited") ||
		strings.Contains(lowered, "message to edit not found")
}
