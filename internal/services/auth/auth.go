// Package auth реализует аутентификацию пользователей мини-приложения
// по initData Telegram и вход администраторов по паролю.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taroteka/tarot-miniapp/internal/lib/jwt"
	"github.com/taroteka/tarot-miniapp/internal/lib/password"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/telegram"
)

// Максимальный возраст initData: более старые данные считаются украденными.
const initDataMaxAge = 24 * time.Hour

// UserRepository описывает операции хранилища, нужные аутентификации.
type UserRepository interface {
	UpsertTelegramUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error)
	GetAdminByUsername(ctx context.Context, username string) (string, error)
}

// AuthService выполняет проверку initData и выдачу JWT.
type AuthService struct {
	repo     UserRepository
	maker    jwt.Maker
	botToken string
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый AuthService.
func New(repo UserRepository, maker jwt.Maker, botToken string, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		maker:    maker,
		botToken: botToken,
		log:      log,
		now:      time.Now,
	}
}

// TelegramAuth проверяет подпись initData, создает или обновляет пользователя
// и возвращает JWT вместе с профилем.
func (s *AuthService) TelegramAuth(ctx context.Context, initData string) (string, *models.User, error) {
	const op = "auth.TelegramAuth"

	data, err := telegram.VerifyInitData(initData, s.botToken, initDataMaxAge, s.now())
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.UpsertTelegramUser(ctx, data.User.ID, data.User.Username, data.User.FirstName)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.maker.GenerateToken(user.UUID, "user")
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("telegram user authenticated",
		slog.Int64("telegram_id", data.User.ID),
		slog.String("user_uid", user.UUID))
	return token, user, nil
}

// AdminLogin проверяет пароль администратора и возвращает JWT с ролью admin.
func (s *AuthService) AdminLogin(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "auth.AdminLogin"

	passwordHash, err := s.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(passwordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.maker.GenerateToken(username, "admin")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin logged in", slog.String("username", username))
	return token, nil
}
