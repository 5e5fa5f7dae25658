package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// CreateReading сохраняет расклад пользователя и возвращает его ID.
// Карты хранятся как JSONB.
func (s *Storage) CreateReading(ctx context.Context, r models.Reading) (int, error) {
	const op = "repository.CreateReading"

	cards, err := json.Marshal(r.Cards)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var newID int
	query := `INSERT INTO readings (user_uid, kind, question, cards, interpretation)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		r.UserUID, r.Kind, r.Question, cards, r.Interpretation).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListReadings возвращает последние расклады пользователя, не более limit штук.
func (s *Storage) ListReadings(ctx context.Context, userUID string, limit int) ([]*models.Reading, error) {
	const op = "repository.ListReadings"

	query := `SELECT id, user_uid, kind, question, cards, interpretation, created_at
			  FROM readings
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Reading
	for rows.Next() {
		var r models.Reading
		var cards []byte
		if err = rows.Scan(&r.ID, &r.UserUID, &r.Kind, &r.Question,
			&cards, &r.Interpretation, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = json.Unmarshal(cards, &r.Cards); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
