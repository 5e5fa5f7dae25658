package repository

import (
	"context"
	"fmt"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// CreatePayment сохраняет платёж и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	const op = "repository.CreatePayment"

	var newID int
	query := `INSERT INTO payments (user_uid, provider_id, status, amount_value, amount_currency)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.ProviderID, p.Status, p.AmountValue, p.AmountCurrency).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdatePaymentStatus обновляет статус платежа по его ID в ЮKassa.
// Возвращает UID пользователя, которому принадлежит платёж.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, providerID, status string) (string, error) {
	const op = "repository.UpdatePaymentStatus"

	var userUID string
	query := `UPDATE payments
			  SET status = $2
			  WHERE provider_id = $1
			  RETURNING user_uid`
	if err := s.DB.QueryRowContext(ctx, query, providerID, status).Scan(&userUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}

// ListPayments возвращает платежи пользователя.
func (s *Storage) ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "repository.ListPayments"

	query := `SELECT id, user_uid, provider_id, status, amount_value, amount_currency, created_at
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err = rows.Scan(&p.ID, &p.UserUID, &p.ProviderID, &p.Status,
			&p.AmountValue, &p.AmountCurrency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
