package models

import "time"

// Статусы обращения в поддержку.
const (
	SupportOpen     = "open"
	SupportAnswered = "answered"
)

// SupportRequest представляет обращение пользователя в поддержку.
type SupportRequest struct {
	ID         int        `json:"id"`
	UserUID    string     `json:"user_uid"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	Answer     *string    `json:"answer,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// DummySupportRequest используется для приёма обращения из JSON-запроса.
type DummySupportRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// DummySupportAnswer используется для приёма ответа администратора.
type DummySupportAnswer struct {
	Answer string `json:"answer" validate:"required,max=2000"`
}
