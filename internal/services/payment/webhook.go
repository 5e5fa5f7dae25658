package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/paymentprovider"
)

const subscriptionActivatedText = "Оплата прошла успешно! Подписка активна, безлимитные расклады уже ждут вас ✨"

// notification — сообщение для очереди уведомлений.
type notification struct {
	TelegramID int64  `json:"telegram_id"`
	Text       string `json:"text"`
}

// ProcessWebhookEvent обрабатывает уведомление ЮKassa о платеже.
//
// payment.succeeded активирует подписку и публикует уведомление пользователю,
// payment.canceled только фиксирует статус. Неизвестные события игнорируются:
// ЮKassa не должна ретраить то, что сервис не обрабатывает.
func (s *PaymentService) ProcessWebhookEvent(ctx context.Context, event paymentprovider.WebhookEvent) error {
	const op = "payment.ProcessWebhookEvent"

	switch event.Event {
	case paymentprovider.EventPaymentSucceeded:
		userUID, err := s.repo.UpdatePaymentStatus(ctx, event.Object.ID, "succeeded")
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.ActivateSubscription(ctx, userUID, s.now()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("subscription activated",
			slog.String("user_uid", userUID),
			slog.String("provider_id", event.Object.ID))

		s.notifyUser(ctx, userUID)
		return nil

	case paymentprovider.EventPaymentCanceled:
		if _, err := s.repo.UpdatePaymentStatus(ctx, event.Object.ID, "canceled"); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil

	default:
		s.log.Info("ignoring unsupported webhook event", slog.String("event", event.Event))
		return nil
	}
}

// notifyUser публикует уведомление об активации подписки.
// Сбой публикации не откатывает платеж: уведомление вторично.
func (s *PaymentService) notifyUser(ctx context.Context, userUID string) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Error("failed to load user for notification", sl.Err(err))
		return
	}
	err = s.publisher.Publish("payment", notification{
		TelegramID: user.TelegramID,
		Text:       subscriptionActivatedText,
	})
	if err != nil {
		s.log.Error("failed to publish payment notification", sl.Err(err))
	}
}
