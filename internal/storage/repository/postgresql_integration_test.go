package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

func TestStorage_UpsertTelegramUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	created, err := storage.UpsertTelegramUser(ctx, 777000, "ivan", "Ivan")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, int64(777000), created.TelegramID)
	assert.Equal(t, models.SubscriptionNone, created.SubscriptionStatus)

	// повторный вход обновляет профиль, но сохраняет UID и счётчики
	updated, err := storage.UpsertTelegramUser(ctx, 777000, "ivan_new", "Ivan")
	require.NoError(t, err)
	assert.Equal(t, created.UUID, updated.UUID)
	assert.Equal(t, "ivan_new", updated.Username)
}

func TestStorage_UpdateUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, err := storage.UpsertTelegramUser(ctx, 777000, "ivan", "Ivan")
	require.NoError(t, err)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("дата совета дня перезаписывается, флаги только взводятся", func(t *testing.T) {
		require.NoError(t, storage.UpdateUsage(ctx, user.UUID, &now, true, false, false))

		got, err := storage.GetUser(ctx, user.UUID)
		require.NoError(t, err)
		require.NotNil(t, got.LastDailyAdviceDate)
		assert.True(t, got.LastDailyAdviceDate.Equal(now))
		assert.True(t, got.FreeDailyAdviceUsed)
		assert.False(t, got.FreeYesNoUsed)

		// false не сбрасывает уже взведённый флаг
		require.NoError(t, storage.UpdateUsage(ctx, user.UUID, nil, false, true, false))
		got, err = storage.GetUser(ctx, user.UUID)
		require.NoError(t, err)
		assert.True(t, got.FreeDailyAdviceUsed)
		assert.True(t, got.FreeYesNoUsed)
		require.NotNil(t, got.LastDailyAdviceDate)
		assert.True(t, got.LastDailyAdviceDate.Equal(now), "nil не должен затирать дату")
	})

	t.Run("несуществующий пользователь", func(t *testing.T) {
		err := storage.UpdateUsage(ctx, "00000000-0000-0000-0000-000000000000", nil, true, false, false)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStorage_ActivateSubscription(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, err := storage.UpsertTelegramUser(ctx, 777000, "ivan", "Ivan")
	require.NoError(t, err)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.ActivateSubscription(ctx, user.UUID, now))

	got, err := storage.GetUser(ctx, user.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionExpiry)
	assert.True(t, got.SubscriptionExpiry.After(now.AddDate(0, 0, 27)))

	// повторная оплата продлевает от текущего срока, а не от now
	firstExpiry := *got.SubscriptionExpiry
	require.NoError(t, storage.ActivateSubscription(ctx, user.UUID, now))
	got, err = storage.GetUser(ctx, user.UUID)
	require.NoError(t, err)
	assert.True(t, got.SubscriptionExpiry.After(firstExpiry))
}

func TestStorage_Readings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, err := storage.UpsertTelegramUser(ctx, 777000, "ivan", "Ivan")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := storage.CreateReading(ctx, models.Reading{
			UserUID:        user.UUID,
			Kind:           models.ReadingYesNo,
			Question:       "Вопрос",
			Cards:          []models.Card{{Name: "Солнце", Arcana: "major", Upright: true}},
			Interpretation: "Ответ",
			CreatedAt:      time.Now().Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	readings, err := storage.ListReadings(ctx, user.UUID, 3)
	require.NoError(t, err)
	assert.Len(t, readings, 3)
	// свежие записи идут первыми
	assert.True(t, readings[0].CreatedAt.After(readings[2].CreatedAt))
	assert.Equal(t, "Солнце", readings[0].Cards[0].Name)
}

func TestStorage_Payments(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, err := storage.UpsertTelegramUser(ctx, 777000, "ivan", "Ivan")
	require.NoError(t, err)

	_, err = storage.CreatePayment(ctx, models.Payment{
		UserUID:        user.UUID,
		ProviderID:     "pay-123",
		Status:         "pending",
		AmountValue:    "299.00",
		AmountCurrency: "RUB",
		CreatedAt:      time.Now(),
	})
	require.NoError(t, err)

	userUID, err := storage.UpdatePaymentStatus(ctx, "pay-123", "succeeded")
	require.NoError(t, err)
	assert.Equal(t, user.UUID, userUID)

	payments, err := storage.ListPayments(ctx, user.UUID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "succeeded", payments[0].Status)
}

func TestStorage_SupportAndReviews(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, err := storage.UpsertTelegramUser(ctx, 777000, "ivan", "Ivan")
	require.NoError(t, err)

	id, err := storage.CreateSupportRequest(ctx, user.UUID, "Не приходит расклад")
	require.NoError(t, err)

	open, err := storage.ListSupportRequests(ctx, models.SupportOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)

	userUID, err := storage.AnswerSupportRequest(ctx, id, "Проверьте подписку")
	require.NoError(t, err)
	assert.Equal(t, user.UUID, userUID)

	open, err = storage.ListSupportRequests(ctx, models.SupportOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	reviewID, err := storage.CreateReview(ctx, user.UUID, 5, "Отличное приложение")
	require.NoError(t, err)
	require.NoError(t, storage.ModerateReview(ctx, reviewID, models.ReviewApproved))

	approved, err := storage.ListReviews(ctx, models.ReviewApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, 5, approved[0].Rating)

	err = storage.ModerateReview(ctx, 9999, models.ReviewRejected)
	assert.ErrorIs(t, err, ErrNotFound)
}
