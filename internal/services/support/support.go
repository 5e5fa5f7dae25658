// Package support реализует обращения пользователей в поддержку
// и ответы администраторов с уведомлением в Telegram.
package support

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/models"
)

// Repository описывает операции хранилища обращений.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateSupportRequest(ctx context.Context, userUID, message string) (int, error)
	ListSupportRequests(ctx context.Context, status string) ([]*models.SupportRequest, error)
	AnswerSupportRequest(ctx context.Context, id int, answer string) (string, error)
}

// Publisher публикует уведомления для отправки пользователю.
type Publisher interface {
	Publish(routingKey string, message any) error
}

type notification struct {
	TelegramID int64  `json:"telegram_id"`
	Text       string `json:"text"`
}

// SupportService управляет обращениями в поддержку.
type SupportService struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый SupportService.
func New(repo Repository, publisher Publisher, log *slog.Logger) *SupportService {
	return &SupportService{repo: repo, publisher: publisher, log: log}
}

// Create регистрирует новое обращение пользователя.
func (s *SupportService) Create(ctx context.Context, userUID, message string) (int, error) {
	const op = "support.Create"
	id, err := s.repo.CreateSupportRequest(ctx, userUID, message)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("support request created",
		slog.String("user_uid", userUID),
		slog.Int("id", id))
	return id, nil
}

// List возвращает обращения, опционально отфильтрованные по статусу.
func (s *SupportService) List(ctx context.Context, status string) ([]*models.SupportRequest, error) {
	return s.repo.ListSupportRequests(ctx, status)
}

// Answer сохраняет ответ администратора и уведомляет пользователя в Telegram.
func (s *SupportService) Answer(ctx context.Context, id int, answer string) error {
	const op = "support.Answer"

	userUID, err := s.repo.AnswerSupportRequest(ctx, id, answer)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		// ответ уже сохранён, уведомление вторично
		s.log.Error("failed to load user for support notification", sl.Err(err))
		return nil
	}
	err = s.publisher.Publish("support", notification{
		TelegramID: user.TelegramID,
		Text:       "Поддержка ответила на ваше обращение:\n\n" + answer,
	})
	if err != nil {
		s.log.Error("failed to publish support notification", sl.Err(err))
	}
	return nil
}
