package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
)

// NotificationHandler обрабатывает уведомление из очереди.
type NotificationHandler func(ctx context.Context, n Notification) error

// ConsumeNotifications подписывается на очередь queueName и обрабатывает
// уведомления в workers параллельных горутинах. Ошибка обработчика ведёт
// к nack с повторной доставкой; нечитаемое сообщение отбрасывается сразу.
func ConsumeNotifications(ctx context.Context, ch *amqp.Channel, queueName string,
	workers int, log *slog.Logger, handler NotificationHandler) error {
	const op = "rabbitmq.ConsumeNotifications"

	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if workers < 1 {
		workers = 1
	}
	qlog := log.With(slog.String("queue", queueName))

	sem := make(chan struct{}, workers)
	go func() {
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					processDelivery(ctx, qlog, handler, d)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// processDelivery декодирует уведомление, вызывает обработчик
// и подтверждает доставку.
func processDelivery(ctx context.Context, log *slog.Logger, handler NotificationHandler, d amqp.Delivery) {
	var n Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		// битое сообщение: повторная доставка не поможет
		log.Error("failed to decode notification, dropping", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}

	if err := handler(ctx, n); err != nil {
		log.Error("notification handler failed, requeueing",
			slog.Int64("telegram_id", n.TelegramID), sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}
