package repository

import (
	"context"
	"fmt"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// CreateReview сохраняет отзыв пользователя со статусом pending.
func (s *Storage) CreateReview(ctx context.Context, userUID string, rating int, text string) (int, error) {
	const op = "repository.CreateReview"

	var newID int
	query := `INSERT INTO reviews (user_uid, rating, text, status)
			  VALUES ($1, $2, $3, 'pending')
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, userUID, rating, text).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListReviews возвращает отзывы с указанным статусом,
// либо все отзывы при пустом статусе.
func (s *Storage) ListReviews(ctx context.Context, status string) ([]*models.Review, error) {
	const op = "repository.ListReviews"

	query := `SELECT id, user_uid, rating, text, status, created_at
			  FROM reviews
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Review
	for rows.Next() {
		var r models.Review
		if err = rows.Scan(&r.ID, &r.UserUID, &r.Rating, &r.Text,
			&r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ModerateReview переводит отзыв в статус approved или rejected.
func (s *Storage) ModerateReview(ctx context.Context, id int, status string) error {
	const op = "repository.ModerateReview"

	query := `UPDATE reviews SET status = $2 WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
