// Package entitlement содержит политику доступа к платным раскладам.
//
// Evaluate вычисляет текущие права пользователя из сохранённого состояния
// и времени; Record фиксирует потребление расклада. Вызывающий код обязан
// сначала получить одобрение Evaluate, выполнить расклад и только затем
// вызвать Record — неудачный запрос к ИИ не расходует бесплатную попытку.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taroteka/tarot-miniapp/internal/models"
)

// Unlimited — сигнальное значение счётчика оставшихся попыток.
const Unlimited = -1

// Лимит истории для подписчиков. Бесплатным пользователям история недоступна.
const subscriberHistoryLimit = 30

// Result описывает вычисленные права пользователя.
type Result struct {
	HasSubscription      bool `json:"has_subscription"`
	CanUseDailyAdvice    bool `json:"can_use_daily_advice"`
	CanUseYesNo          bool `json:"can_use_yes_no"`
	CanUseThreeCards     bool `json:"can_use_three_cards"`
	HistoryLimit         int  `json:"history_limit"`
	DailyAdviceRemaining int  `json:"daily_advice_remaining"` // -1 означает «безлимит»
	YesNoRemaining       int  `json:"yes_no_remaining"`
	ThreeCardsRemaining  int  `json:"three_cards_remaining"`
}

// CanUse сообщает, разрешён ли расклад указанного вида.
func (r Result) CanUse(action string) bool {
	switch action {
	case models.ReadingDaily:
		return r.CanUseDailyAdvice
	case models.ReadingYesNo:
		return r.CanUseYesNo
	case models.ReadingThreeCards:
		return r.CanUseThreeCards
	default:
		return false
	}
}

// Evaluate вычисляет права пользователя на момент now.
//
// Функция чистая и тотальная: не изменяет пользователя и не возвращает ошибок.
// Сравнение дня для совета дня ведётся по календарному дню в UTC.
func Evaluate(u *models.User, now time.Time) Result {
	if u.HasActiveSubscription(now) {
		res := Result{
			HasSubscription:      true,
			CanUseYesNo:          true,
			CanUseThreeCards:     true,
			HistoryLimit:         subscriberHistoryLimit,
			YesNoRemaining:       Unlimited,
			ThreeCardsRemaining:  Unlimited,
			DailyAdviceRemaining: 0,
		}
		// Совет дня ограничен одним в сутки даже для подписчиков.
		res.CanUseDailyAdvice = u.LastDailyAdviceDate == nil || !sameUTCDay(*u.LastDailyAdviceDate, now)
		if res.CanUseDailyAdvice {
			res.DailyAdviceRemaining = Unlimited
		}
		return res
	}

	res := Result{
		HasSubscription:   false,
		CanUseDailyAdvice: !u.FreeDailyAdviceUsed,
		CanUseYesNo:       !u.FreeYesNoUsed,
		CanUseThreeCards:  !u.FreeThreeCardsUsed,
		HistoryLimit:      0,
	}
	if res.CanUseDailyAdvice {
		res.DailyAdviceRemaining = 1
	}
	if res.CanUseYesNo {
		res.YesNoRemaining = 1
	}
	if res.CanUseThreeCards {
		res.ThreeCardsRemaining = 1
	}
	return res
}

// restrictionMessage — единый текст для всех запрещённых действий.
const restrictionMessage = "Бесплатный расклад уже использован. Оформите подписку, чтобы получить безлимитный доступ к раскладам ✨"

// RestrictionMessage возвращает текст отказа для запрещённого действия.
// Для подписчика возвращается пустая строка: ограничений нет.
func RestrictionMessage(_ string, res Result) string {
	if res.HasSubscription {
		return ""
	}
	return restrictionMessage
}

// UsageRepository описывает атомарное обновление полей потребления пользователя.
type UsageRepository interface {
	// UpdateUsage применяет изменения одним UPDATE: дата совета дня
	// перезаписывается, если передана, флаги free* только взводятся.
	UpdateUsage(ctx context.Context, userUID string, lastDailyAdviceDate *time.Time,
		freeDaily, freeYesNo, freeThreeCards bool) error
}

// Service фиксирует потребление раскладов в хранилище.
type Service struct {
	repo UsageRepository
	log  *slog.Logger
	now  func() time.Time
}

// New создает новый Service с системными часами.
func New(repo UsageRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// NewWithClock создает Service с подменяемыми часами для тестов.
func NewWithClock(repo UsageRepository, log *slog.Logger, now func() time.Time) *Service {
	return &Service{repo: repo, log: log, now: now}
}

// Evaluate вычисляет права пользователя по текущим часам сервиса.
func (s *Service) Evaluate(u *models.User) Result {
	return Evaluate(u, s.now())
}

// Record фиксирует потребление расклада action пользователем.
//
// Совет дня всегда обновляет дату последнего совета — это и создаёт
// суточный лимит для подписчиков. Флаги free* взводятся только когда
// сырой статус подписки не active (без перепроверки срока действия).
// При ошибке сохранения состояние пользователя в памяти не меняется.
func (s *Service) Record(ctx context.Context, u *models.User, action string) error {
	const op = "entitlement.Record"

	isFree := u.SubscriptionStatus != models.SubscriptionActive

	var lastDaily *time.Time
	var setDaily, setYesNo, setThree bool

	switch action {
	case models.ReadingDaily:
		now := s.now().UTC()
		lastDaily = &now
		setDaily = isFree
	case models.ReadingYesNo:
		setYesNo = isFree
	case models.ReadingThreeCards:
		setThree = isFree
	default:
		return fmt.Errorf("%s: unknown action %q", op, action)
	}

	if lastDaily == nil && !setYesNo && !setThree {
		return nil
	}

	if err := s.repo.UpdateUsage(ctx, u.UUID, lastDaily, setDaily, setYesNo, setThree); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if lastDaily != nil {
		u.LastDailyAdviceDate = lastDaily
	}
	u.FreeDailyAdviceUsed = u.FreeDailyAdviceUsed || setDaily
	u.FreeYesNoUsed = u.FreeYesNoUsed || setYesNo
	u.FreeThreeCardsUsed = u.FreeThreeCardsUsed || setThree

	s.log.Info("usage recorded",
		slog.String("user_uid", u.UUID),
		slog.String("action", action))
	return nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
