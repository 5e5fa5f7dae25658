package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// ErrNotFound возвращается, когда запись отсутствует в базе.
var ErrNotFound = errors.New("record not found")

// CreateSupportRequest сохраняет обращение в поддержку и возвращает его ID.
func (s *Storage) CreateSupportRequest(ctx context.Context, userUID, message string) (int, error) {
	const op = "repository.CreateSupportRequest"

	var newID int
	query := `INSERT INTO support_requests (user_uid, message, status)
			  VALUES ($1, $2, 'open')
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, userUID, message).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListSupportRequests возвращает обращения с указанным статусом,
// либо все обращения при пустом статусе.
func (s *Storage) ListSupportRequests(ctx context.Context, status string) ([]*models.SupportRequest, error) {
	const op = "repository.ListSupportRequests"

	query := `SELECT id, user_uid, message, status, answer, created_at, answered_at
			  FROM support_requests
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SupportRequest
	for rows.Next() {
		var sr models.SupportRequest
		var answer sql.NullString
		var answeredAt sql.NullTime
		if err = rows.Scan(&sr.ID, &sr.UserUID, &sr.Message, &sr.Status,
			&answer, &sr.CreatedAt, &answeredAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if answer.Valid {
			sr.Answer = &answer.String
		}
		if answeredAt.Valid {
			sr.AnsweredAt = &answeredAt.Time
		}
		result = append(result, &sr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AnswerSupportRequest записывает ответ администратора на обращение.
// Возвращает UID автора обращения для отправки уведомления.
func (s *Storage) AnswerSupportRequest(ctx context.Context, id int, answer string) (string, error) {
	const op = "repository.AnswerSupportRequest"

	var userUID string
	query := `UPDATE support_requests
			  SET status = 'answered', answer = $2, answered_at = now()
			  WHERE id = $1
			  RETURNING user_uid`
	err := s.DB.QueryRowContext(ctx, query, id, answer).Scan(&userUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}
