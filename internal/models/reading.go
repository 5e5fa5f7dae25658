package models

import "time"

// Виды раскладов.
const (
	ReadingDaily      = "daily"
	ReadingYesNo      = "yesno"
	ReadingThreeCards = "three_cards"
)

// Card представляет выпавшую карту в раскладе.
type Card struct {
	Name    string `json:"name"`    // Название карты
	Arcana  string `json:"arcana"`  // Старший или младший аркан
	Upright bool   `json:"upright"` // Прямое или перевёрнутое положение
}

// Reading представляет сохранённый расклад пользователя.
type Reading struct {
	ID             int       `json:"id"`
	UserUID        string    `json:"user_uid"`
	Kind           string    `json:"kind"`
	Question       string    `json:"question,omitempty"`
	Cards          []Card    `json:"cards"`
	Interpretation string    `json:"interpretation"`
	CreatedAt      time.Time `json:"created_at"`
}

// DummyReadingRequest используется для приёма данных из JSON-запроса
// на расклад с вопросом (да/нет и три карты).
type DummyReadingRequest struct {
	Question string `json:"question" validate:"required,max=500"` // Вопрос пользователя
}
