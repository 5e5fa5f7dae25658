// Package sender доставляет уведомления из очереди пользователям в Telegram.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/rabbitmq"
)

// Messenger описывает отправку сообщений пользователю.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SenderService обрабатывает сообщения очереди уведомлений.
type SenderService struct {
	messenger Messenger
	log       *slog.Logger
}

// New создает новый SenderService.
func New(messenger Messenger, log *slog.Logger) *SenderService {
	return &SenderService{messenger: messenger, log: log}
}

// HandleNotification отправляет уведомление из очереди пользователю в Telegram.
// Ошибка ведёт к nack и повторной доставке.
func (s *SenderService) HandleNotification(ctx context.Context, msg rabbitmq.Notification) error {
	const op = "sender.HandleNotification"

	if err := s.messenger.SendMessage(ctx, msg.TelegramID, msg.Text); err != nil {
		s.log.Error("failed to send telegram message",
			slog.Int64("telegram_id", msg.TelegramID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("notification delivered", slog.Int64("telegram_id", msg.TelegramID))
	return nil
}
