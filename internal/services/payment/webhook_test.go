package payment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/paymentprovider"
	"github.com/taroteka/tarot-miniapp/internal/services/payment"
)

type RepositoryMock struct{ mock.Mock }

func (m *RepositoryMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *RepositoryMock) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *RepositoryMock) UpdatePaymentStatus(ctx context.Context, providerID, status string) (string, error) {
	args := m.Called(ctx, providerID, status)
	return args.String(0), args.Error(1)
}

func (m *RepositoryMock) ActivateSubscription(ctx context.Context, userUID string, now time.Time) error {
	args := m.Called(ctx, userUID, now)
	return args.Error(0)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CreatePayment(ctx context.Context, req paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*paymentprovider.CreatePaymentResponse)
	return resp, args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *RepositoryMock, provider *ProviderMock, pub *PublisherMock) *payment.PaymentService {
	return payment.New(repo, provider, pub, "299.00", "https://t.me/tarot_bot", newNoopLogger())
}

func TestCreate_ReturnsConfirmationURL(t *testing.T) {
	repo := new(RepositoryMock)
	provider := new(ProviderMock)
	svc := newService(repo, provider, new(PublisherMock))

	provider.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreatePaymentRequest) bool {
		return req.Amount.Value == "299.00" && req.Metadata["user_uid"] == "user-1"
	})).Return(&paymentprovider.CreatePaymentResponse{
		ID:     "pay-123",
		Status: "pending",
		Amount: paymentprovider.Amount{Value: "299.00", Currency: "RUB"},
		Confirmation: paymentprovider.Confirmation{
			Type:            "redirect",
			ConfirmationURL: "https://yookassa.ru/confirm/pay-123",
		},
	}, nil)
	repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.ProviderID == "pay-123" && p.UserUID == "user-1"
	})).Return(1, nil)

	url, err := svc.Create(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://yookassa.ru/confirm/pay-123", url)
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestProcessWebhookEvent_Succeeded(t *testing.T) {
	repo := new(RepositoryMock)
	pub := new(PublisherMock)
	svc := newService(repo, new(ProviderMock), pub)

	repo.On("UpdatePaymentStatus", mock.Anything, "pay-123", "succeeded").Return("user-1", nil)
	repo.On("ActivateSubscription", mock.Anything, "user-1", mock.Anything).Return(nil)
	repo.On("GetUser", mock.Anything, "user-1").
		Return(&models.User{UUID: "user-1", TelegramID: 777000}, nil)
	pub.On("Publish", "payment", mock.Anything).Return(nil)

	err := svc.ProcessWebhookEvent(context.Background(), paymentprovider.WebhookEvent{
		Event:  paymentprovider.EventPaymentSucceeded,
		Object: paymentprovider.WebhookObject{ID: "pay-123", Status: "succeeded"},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestProcessWebhookEvent_SucceededActivationError(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, new(ProviderMock), new(PublisherMock))

	repo.On("UpdatePaymentStatus", mock.Anything, "pay-123", "succeeded").Return("user-1", nil)
	repo.On("ActivateSubscription", mock.Anything, "user-1", mock.Anything).
		Return(errors.New("db down"))

	err := svc.ProcessWebhookEvent(context.Background(), paymentprovider.WebhookEvent{
		Event:  paymentprovider.EventPaymentSucceeded,
		Object: paymentprovider.WebhookObject{ID: "pay-123"},
	})
	assert.Error(t, err)
}

func TestProcessWebhookEvent_Canceled(t *testing.T) {
	repo := new(RepositoryMock)
	pub := new(PublisherMock)
	svc := newService(repo, new(ProviderMock), pub)

	repo.On("UpdatePaymentStatus", mock.Anything, "pay-123", "canceled").Return("user-1", nil)

	err := svc.ProcessWebhookEvent(context.Background(), paymentprovider.WebhookEvent{
		Event:  paymentprovider.EventPaymentCanceled,
		Object: paymentprovider.WebhookObject{ID: "pay-123"},
	})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProcessWebhookEvent_UnknownEventIgnored(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, new(ProviderMock), new(PublisherMock))

	err := svc.ProcessWebhookEvent(context.Background(), paymentprovider.WebhookEvent{
		Event: "refund.succeeded",
	})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}
