package auth_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taroteka/tarot-miniapp/internal/lib/jwt"
	"github.com/taroteka/tarot-miniapp/internal/lib/password"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/services/auth"
)

const testBotToken = "12345:test-token"

type UserRepositoryMock struct{ mock.Mock }

func (m *UserRepositoryMock) UpsertTelegramUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	args := m.Called(ctx, telegramID, username, firstName)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetAdminByUsername(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func signedInitData(t *testing.T, botToken string) string {
	t.Helper()
	values := url.Values{}
	values.Set("user", `{"id":777000,"first_name":"Ivan","username":"ivan"}`)
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func TestTelegramAuth_Valid(t *testing.T) {
	repo := new(UserRepositoryMock)
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	svc := auth.New(repo, maker, testBotToken, newNoopLogger())

	repo.On("UpsertTelegramUser", mock.Anything, int64(777000), "ivan", "Ivan").
		Return(&models.User{UUID: "user-1", TelegramID: 777000, Username: "ivan"}, nil)

	token, user, err := svc.TelegramAuth(context.Background(), signedInitData(t, testBotToken))
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UUID)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.SubjectUID)
	assert.Equal(t, "user", claims.Role)
}

func TestTelegramAuth_InvalidSignature(t *testing.T) {
	repo := new(UserRepositoryMock)
	svc := auth.New(repo, jwt.NewJWTMaker("test-secret", time.Hour), testBotToken, newNoopLogger())

	_, _, err := svc.TelegramAuth(context.Background(), signedInitData(t, "999:other-token"))
	require.Error(t, err)
	repo.AssertNotCalled(t, "UpsertTelegramUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminLogin(t *testing.T) {
	repo := new(UserRepositoryMock)
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	svc := auth.New(repo, maker, testBotToken, newNoopLogger())

	hash, err := password.GetHash("correct-password")
	require.NoError(t, err)
	repo.On("GetAdminByUsername", mock.Anything, "admin").Return(hash, nil)

	t.Run("правильный пароль", func(t *testing.T) {
		token, err := svc.AdminLogin(context.Background(), "admin", "correct-password")
		require.NoError(t, err)

		claims, err := maker.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("неправильный пароль", func(t *testing.T) {
		_, err := svc.AdminLogin(context.Background(), "admin", "wrong-password")
		assert.Error(t, err)
	})
}
