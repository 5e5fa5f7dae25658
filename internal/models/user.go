// Package models содержит доменную модель пользователя мини-приложения,
// включающую Telegram-идентификацию, статус подписки и флаги использования
// бесплатных раскладов. Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionNone   = "none"
	SubscriptionActive = "active"
)

// User представляет пользователя мини-приложения, пришедшего из Telegram.
type User struct {
	UUID                    string     // Уникальный идентификатор пользователя
	TelegramID              int64      // Идентификатор пользователя в Telegram (уникальный)
	Username                string     // Username в Telegram, может быть пустым
	FirstName               string     // Имя из профиля Telegram
	SubscriptionStatus      string     // Статус подписки: none или active
	SubscriptionExpiry      *time.Time // Дата истечения оплаченной подписки
	SubscriptionActivatedAt *time.Time // Дата последней активации подписки
	FreeDailyAdviceUsed     bool       // Использован ли бесплатный совет дня
	FreeYesNoUsed           bool       // Использован ли бесплатный расклад да/нет
	FreeThreeCardsUsed      bool       // Использован ли бесплатный расклад из трёх карт
	LastDailyAdviceDate     *time.Time // Дата последнего совета дня (точность — день, UTC)
	CreatedAt               time.Time  // Дата регистрации
}

// HasActiveSubscription сообщает, действует ли подписка пользователя в момент now.
// Статус active с истёкшей датой считается отсутствием подписки,
// сам статус при этом не сбрасывается.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionStatus == SubscriptionActive &&
		u.SubscriptionExpiry != nil &&
		u.SubscriptionExpiry.After(now)
}
