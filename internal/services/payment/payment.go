// Package payment реализует создание платежей ЮKassa и обработку
// webhook-уведомлений об их статусах.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/paymentprovider"
)

// Repository описывает операции хранилища, нужные платежному сервису.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreatePayment(ctx context.Context, p models.Payment) (int, error)
	UpdatePaymentStatus(ctx context.Context, providerID, status string) (string, error)
	ActivateSubscription(ctx context.Context, userUID string, now time.Time) error
}

// Provider описывает внешний платежный шлюз.
type Provider interface {
	CreatePayment(ctx context.Context, req paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
}

// Publisher публикует уведомления для отправки пользователю.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// PaymentService управляет платежами за подписку.
type PaymentService struct {
	repo      Repository
	provider  Provider
	publisher Publisher
	price     string
	returnURL string
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый PaymentService.
func New(repo Repository, provider Provider, publisher Publisher, price, returnURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		price:     price,
		returnURL: returnURL,
		log:       log,
		now:       time.Now,
	}
}

// Create создает платеж за месячную подписку и возвращает URL подтверждения.
func (s *PaymentService) Create(ctx context.Context, userUID string) (string, error) {
	const op = "payment.Create"

	resp, err := s.provider.CreatePayment(ctx, paymentprovider.CreatePaymentRequest{
		Amount:      paymentprovider.Amount{Value: s.price, Currency: "RUB"},
		Capture:     true,
		Description: "Подписка на расклады Таро, 1 месяц",
		Confirmation: paymentprovider.Confirmation{
			Type:      "redirect",
			ReturnURL: s.returnURL,
		},
		Metadata: map[string]string{"user_uid": userUID},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.repo.CreatePayment(ctx, models.Payment{
		UserUID:        userUID,
		ProviderID:     resp.ID,
		Status:         resp.Status,
		AmountValue:    resp.Amount.Value,
		AmountCurrency: resp.Amount.Currency,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment created",
		slog.String("user_uid", userUID),
		slog.String("provider_id", resp.ID))
	return resp.Confirmation.ConfirmationURL, nil
}
