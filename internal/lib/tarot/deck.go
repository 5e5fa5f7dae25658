// Package tarot содержит колоду старших арканов и логику вытягивания карт.
package tarot

import (
	"fmt"
	"math/rand/v2"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// majorArcana — 22 старших аркана в каноническом порядке.
var majorArcana = []string{
	"Шут",
	"Маг",
	"Верховная Жрица",
	"Императрица",
	"Император",
	"Иерофант",
	"Влюблённые",
	"Колесница",
	"Сила",
	"Отшельник",
	"Колесо Фортуны",
	"Справедливость",
	"Повешенный",
	"Смерть",
	"Умеренность",
	"Дьявол",
	"Башня",
	"Звезда",
	"Луна",
	"Солнце",
	"Суд",
	"Мир",
}

// DeckSize — количество карт в колоде.
const DeckSize = 22

// Draw вытягивает n различных карт со случайной ориентацией.
func Draw(n int) ([]models.Card, error) {
	const op = "tarot.Draw"
	if n < 1 || n > DeckSize {
		return nil, fmt.Errorf("%s: invalid card count %d", op, n)
	}

	indexes := rand.Perm(DeckSize)
	cards := make([]models.Card, 0, n)
	for _, idx := range indexes[:n] {
		cards = append(cards, models.Card{
			Name:    majorArcana[idx],
			Arcana:  "major",
			Upright: rand.IntN(2) == 0,
		})
	}
	return cards, nil
}
