// Package sender собирает и запускает воркер доставки уведомлений в Telegram.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/taroteka/tarot-miniapp/internal/config"
	"github.com/taroteka/tarot-miniapp/internal/rabbitmq"
	senderservice "github.com/taroteka/tarot-miniapp/internal/services/sender"
	"github.com/taroteka/tarot-miniapp/internal/telegram"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
	workers       int
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues, cfg.RabbitMQConcurrency)
	if err != nil {
		conn.Close()
		return nil, err
	}

	botClient := telegram.NewClient(cfg.BotToken)
	senderService := senderservice.New(botClient, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
		workers:       cfg.RabbitMQConcurrency,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		err := rabbitmq.ConsumeNotifications(ctx, a.ch, q.QueueName, a.workers,
			a.logger, a.senderService.HandleNotification)
		if err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
