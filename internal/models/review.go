package models

import "time"

// Статусы модерации отзыва.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Review представляет отзыв пользователя о сервисе.
type Review struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DummyReview используется для приёма отзыва из JSON-запроса.
type DummyReview struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,max=1000"`
}

// DummyModerate используется для приёма решения модератора.
type DummyModerate struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
