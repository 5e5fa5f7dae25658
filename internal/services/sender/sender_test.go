package sender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taroteka/tarot-miniapp/internal/rabbitmq"
)

// MockMessenger реализует интерфейс Messenger.
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func newTestService(messenger Messenger) *SenderService {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return New(messenger, logger)
}

func TestHandleNotification_Delivers(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("SendMessage", mock.Anything, int64(777000), "Подписка активна").Return(nil)

	svc := newTestService(messenger)
	err := svc.HandleNotification(context.Background(), rabbitmq.Notification{
		TelegramID: 777000,
		Text:       "Подписка активна",
	})

	require.NoError(t, err)
	messenger.AssertExpectations(t)
}

func TestHandleNotification_PropagatesSendError(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("SendMessage", mock.Anything, int64(777000), mock.Anything).
		Return(errors.New("telegram unavailable"))

	svc := newTestService(messenger)
	err := svc.HandleNotification(context.Background(), rabbitmq.Notification{
		TelegramID: 777000,
		Text:       "Текст",
	})

	assert.Error(t, err, "ошибка отправки должна вернуть сообщение в очередь")
}
