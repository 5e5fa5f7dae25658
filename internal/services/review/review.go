// Package review реализует отзывы пользователей и их модерацию.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/http/middlewarectx"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/models"
)

// Repository описывает операции хранилища отзывов.
type Repository interface {
	CreateReview(ctx context.Context, userUID string, rating int, text string) (int, error)
	ListReviews(ctx context.Context, status string) ([]*models.Review, error)
	ModerateReview(ctx context.Context, id int, status string) error
}

// ReviewService управляет отзывами и сбрасывает кеш публичного списка
// после модерации.
type ReviewService struct {
	repo  Repository
	cache *cache.Cache
	log   *slog.Logger
}

// New создает новый ReviewService.
func New(repo Repository, c *cache.Cache, log *slog.Logger) *ReviewService {
	return &ReviewService{repo: repo, cache: c, log: log}
}

// Create сохраняет новый отзыв в статусе pending.
func (s *ReviewService) Create(ctx context.Context, userUID string, rating int, text string) (int, error) {
	const op = "review.Create"
	id, err := s.repo.CreateReview(ctx, userUID, rating, text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("review created",
		slog.String("user_uid", userUID),
		slog.Int("id", id))
	return id, nil
}

// ListApproved возвращает одобренные отзывы для публичной страницы.
func (s *ReviewService) ListApproved(ctx context.Context) ([]*models.Review, error) {
	return s.repo.ListReviews(ctx, models.ReviewApproved)
}

// List возвращает отзывы для админ-панели, опционально по статусу.
func (s *ReviewService) List(ctx context.Context, status string) ([]*models.Review, error) {
	return s.repo.ListReviews(ctx, status)
}

// Moderate изменяет статус отзыва и инвалидирует кеш публичного списка.
func (s *ReviewService) Moderate(ctx context.Context, id int, status string) error {
	const op = "review.Moderate"
	if err := s.repo.ModerateReview(ctx, id, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.InvalidateByPrefix(ctx, middlewarectx.ResponseCacheKeyPrefix); err != nil {
		s.log.Error("failed to invalidate review cache", sl.Err(err))
	}
	return nil
}
