package reading_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/services/reading"
)

type RepositoryMock struct{ mock.Mock }

func (m *RepositoryMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *RepositoryMock) CreateReading(ctx context.Context, r models.Reading) (int, error) {
	args := m.Called(ctx, r)
	return args.Int(0), args.Error(1)
}

func (m *RepositoryMock) ListReadings(ctx context.Context, userUID string, limit int) ([]*models.Reading, error) {
	args := m.Called(ctx, userUID, limit)
	readings, _ := args.Get(0).([]*models.Reading)
	return readings, args.Error(1)
}

type InterpreterMock struct{ mock.Mock }

func (m *InterpreterMock) Interpret(ctx context.Context, kind, question string, cards []models.Card) (string, error) {
	args := m.Called(ctx, kind, question, cards)
	return args.String(0), args.Error(1)
}

type RecorderMock struct{ mock.Mock }

func (m *RecorderMock) Record(ctx context.Context, u *models.User, action string) error {
	args := m.Called(ctx, u, action)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &cache.Cache{Db: client}
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func freeUser() *models.User {
	return &models.User{
		UUID:               "user-1",
		TelegramID:         777000,
		SubscriptionStatus: models.SubscriptionNone,
	}
}

func newService(repo *RepositoryMock, interp *InterpreterMock, rec *RecorderMock, c *cache.Cache) *reading.ReadingService {
	return reading.NewWithClock(repo, interp, rec, c, newNoopLogger(), func() time.Time { return testNow })
}

func TestCreate_FreeUserYesNo(t *testing.T) {
	repo := new(RepositoryMock)
	interp := new(InterpreterMock)
	rec := new(RecorderMock)
	svc := newService(repo, interp, rec, newTestCache(t))

	repo.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
	interp.On("Interpret", mock.Anything, models.ReadingYesNo, "Стоит ли?", mock.Anything).
		Return("Скорее да", nil)
	repo.On("CreateReading", mock.Anything, mock.Anything).Return(1, nil)
	rec.On("Record", mock.Anything, mock.Anything, models.ReadingYesNo).Return(nil)

	res, err := svc.Create(context.Background(), "user-1", models.ReadingYesNo, "Стоит ли?")
	require.NoError(t, err)
	assert.Len(t, res.Cards, 1)
	assert.Equal(t, "Скорее да", res.Interpretation)

	repo.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestCreate_DeniedWhenFreeAttemptUsed(t *testing.T) {
	repo := new(RepositoryMock)
	interp := new(InterpreterMock)
	rec := new(RecorderMock)
	svc := newService(repo, interp, rec, newTestCache(t))

	user := freeUser()
	user.FreeYesNoUsed = true
	repo.On("GetUser", mock.Anything, "user-1").Return(user, nil)

	_, err := svc.Create(context.Background(), "user-1", models.ReadingYesNo, "")
	require.Error(t, err)

	var accessErr *reading.AccessError
	require.True(t, errors.As(err, &accessErr))
	assert.NotEmpty(t, accessErr.Message)
	assert.False(t, accessErr.Entitlement.HasSubscription)

	// до ИИ и записи потребления дело не дошло
	interp.AssertNotCalled(t, "Interpret", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_AIFailureDoesNotConsumeUsage(t *testing.T) {
	repo := new(RepositoryMock)
	interp := new(InterpreterMock)
	rec := new(RecorderMock)
	svc := newService(repo, interp, rec, newTestCache(t))

	repo.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
	interp.On("Interpret", mock.Anything, models.ReadingThreeCards, "", mock.Anything).
		Return("", errors.New("upstream timeout"))

	_, err := svc.Create(context.Background(), "user-1", models.ReadingThreeCards, "")
	require.Error(t, err)

	repo.AssertNotCalled(t, "CreateReading", mock.Anything, mock.Anything)
	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_DailyInterpretationMemoized(t *testing.T) {
	repo := new(RepositoryMock)
	interp := new(InterpreterMock)
	rec := new(RecorderMock)
	svc := newService(repo, interp, rec, newTestCache(t))

	repo.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
	interp.On("Interpret", mock.Anything, models.ReadingDaily, "", mock.Anything).
		Return("Совет дня", nil).Once()
	// первая попытка: расклад не сохранился
	repo.On("CreateReading", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()
	repo.On("CreateReading", mock.Anything, mock.Anything).Return(1, nil).Once()
	rec.On("Record", mock.Anything, mock.Anything, models.ReadingDaily).Return(nil)

	_, err := svc.Create(context.Background(), "user-1", models.ReadingDaily, "")
	require.Error(t, err)

	// повтор в тот же день берет интерпретацию из кеша, без второго вызова ИИ
	res, err := svc.Create(context.Background(), "user-1", models.ReadingDaily, "")
	require.NoError(t, err)
	assert.Equal(t, "Совет дня", res.Interpretation)
	interp.AssertNumberOfCalls(t, "Interpret", 1)
}

func TestHistory_FreeTierDenied(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, new(InterpreterMock), new(RecorderMock), newTestCache(t))

	repo.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)

	_, err := svc.History(context.Background(), "user-1")
	require.Error(t, err)

	var accessErr *reading.AccessError
	require.True(t, errors.As(err, &accessErr))
	assert.Equal(t, 0, accessErr.Entitlement.HistoryLimit)
	repo.AssertNotCalled(t, "ListReadings", mock.Anything, mock.Anything, mock.Anything)
}

func TestHistory_SubscriberLimit(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, new(InterpreterMock), new(RecorderMock), newTestCache(t))

	expiry := testNow.Add(30 * 24 * time.Hour)
	user := freeUser()
	user.SubscriptionStatus = models.SubscriptionActive
	user.SubscriptionExpiry = &expiry
	repo.On("GetUser", mock.Anything, "user-1").Return(user, nil)
	repo.On("ListReadings", mock.Anything, "user-1", 30).
		Return([]*models.Reading{{ID: 1, Kind: models.ReadingDaily}}, nil)

	readings, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, readings, 1)
	repo.AssertExpectations(t)
}
