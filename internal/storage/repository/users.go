package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// ErrUserNotFound возвращается, когда пользователь отсутствует в базе.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `uid, telegram_id, username, first_name, subscription_status,
	      subscription_expiry, subscription_activated_at,
	      free_daily_advice_used, free_yes_no_used, free_three_cards_used,
	      last_daily_advice_date, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var expiry, activatedAt, lastDaily sql.NullTime
	if err := row.Scan(&u.UUID, &u.TelegramID, &u.Username, &u.FirstName,
		&u.SubscriptionStatus, &expiry, &activatedAt,
		&u.FreeDailyAdviceUsed, &u.FreeYesNoUsed, &u.FreeThreeCardsUsed,
		&lastDaily, &u.CreatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		u.SubscriptionExpiry = &expiry.Time
	}
	if activatedAt.Valid {
		u.SubscriptionActivatedAt = &activatedAt.Time
	}
	if lastDaily.Valid {
		u.LastDailyAdviceDate = &lastDaily.Time
	}
	return u, nil
}

// UpsertTelegramUser создаёт пользователя при первом входе через Telegram
// или обновляет его имя, и возвращает актуальную запись.
func (s *Storage) UpsertTelegramUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	const op = "repository.UpsertTelegramUser"

	query := `INSERT INTO users (telegram_id, username, first_name, subscription_status)
			  VALUES ($1, $2, $3, 'none')
			  ON CONFLICT (telegram_id)
			  DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query, telegramID, username, firstName)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "repository.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByTelegramID возвращает пользователя по Telegram ID.
func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "repository.GetUserByTelegramID"

	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	row := s.DB.QueryRowContext(ctx, query, telegramID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUsage применяет потребление раскладов одним атомарным UPDATE:
// дата совета дня перезаписывается, только если передана; флаги free*
// только взводятся и никогда не сбрасываются.
func (s *Storage) UpdateUsage(ctx context.Context, userUID string, lastDailyAdviceDate *time.Time,
	freeDaily, freeYesNo, freeThreeCards bool) error {
	const op = "repository.UpdateUsage"

	query := `UPDATE users
			  SET last_daily_advice_date = COALESCE($2, last_daily_advice_date),
			      free_daily_advice_used = free_daily_advice_used OR $3,
			      free_yes_no_used = free_yes_no_used OR $4,
			      free_three_cards_used = free_three_cards_used OR $5
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, userUID, lastDailyAdviceDate,
		freeDaily, freeYesNo, freeThreeCards)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ActivateSubscription включает подписку пользователя на один месяц.
// Для действующей подписки месяц добавляется к текущей дате истечения.
func (s *Storage) ActivateSubscription(ctx context.Context, userUID string, now time.Time) error {
	const op = "repository.ActivateSubscription"

	query := `UPDATE users
			  SET subscription_status = 'active',
			      subscription_activated_at = $2,
			      subscription_expiry = GREATEST(COALESCE(subscription_expiry, $2), $2) + INTERVAL '1 month'
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, userUID, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// GetAdminByUsername возвращает хэш пароля администратора панели поддержки.
func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (string, error) {
	const op = "repository.GetAdminByUsername"

	query := `SELECT password_hash FROM admins WHERE username = $1`
	var hash string
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}
