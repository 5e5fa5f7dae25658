package models

import "time"

// Payment представляет платёж пользователя в ЮKassa.
type Payment struct {
	ID             int       `json:"id"`
	UserUID        string    `json:"user_uid"`
	ProviderID     string    `json:"provider_id"` // ID платежа в ЮKassa
	Status         string    `json:"status"`      // pending, succeeded, canceled
	AmountValue    string    `json:"amount_value"`
	AmountCurrency string    `json:"amount_currency"`
	CreatedAt      time.Time `json:"created_at"`
}
