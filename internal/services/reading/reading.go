// Package reading оркестрирует выполнение раскладов: проверку прав,
// вытягивание карт, интерпретацию и фиксацию потребления.
package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/lib/tarot"
	"github.com/taroteka/tarot-miniapp/internal/metrics"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/services/entitlement"
)

// Количество карт по видам раскладов.
const (
	dailyCards      = 1
	yesNoCards      = 1
	threeCardsCount = 3
)

// ErrInterpretation сигнализирует о сбое внешнего сервиса интерпретаций.
var ErrInterpretation = errors.New("interpretation service failed")

// AccessError возвращается, когда расклад запрещён текущими правами.
// Несёт текст отказа и снимок прав для тела ответа.
type AccessError struct {
	Message     string
	Entitlement entitlement.Result
}

func (e *AccessError) Error() string { return e.Message }

// Repository описывает операции хранилища, нужные сервису раскладов.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateReading(ctx context.Context, r models.Reading) (int, error)
	ListReadings(ctx context.Context, userUID string, limit int) ([]*models.Reading, error)
}

// Interpreter описывает генератор интерпретаций.
type Interpreter interface {
	Interpret(ctx context.Context, kind, question string, cards []models.Card) (string, error)
}

// Recorder фиксирует потребление раскладов.
type Recorder interface {
	Record(ctx context.Context, u *models.User, action string) error
}

// Result — результат выполненного расклада.
type Result struct {
	Cards          []models.Card      `json:"cards"`
	Interpretation string             `json:"interpretation"`
	Entitlement    entitlement.Result `json:"entitlement"`
}

// ReadingService выполняет расклады для пользователей.
type ReadingService struct {
	repo        Repository
	interpreter Interpreter
	recorder    Recorder
	cache       *cache.Cache
	log         *slog.Logger
	now         func() time.Time
}

// New создает новый ReadingService с системными часами.
func New(repo Repository, interpreter Interpreter, recorder Recorder, c *cache.Cache, log *slog.Logger) *ReadingService {
	return &ReadingService{
		repo:        repo,
		interpreter: interpreter,
		recorder:    recorder,
		cache:       c,
		log:         log,
		now:         time.Now,
	}
}

// NewWithClock создает ReadingService с подменяемыми часами для тестов.
func NewWithClock(repo Repository, interpreter Interpreter, recorder Recorder, c *cache.Cache,
	log *slog.Logger, now func() time.Time) *ReadingService {
	s := New(repo, interpreter, recorder, c, log)
	s.now = now
	return s
}

// dailyInterpretation — кешируемая интерпретация совета дня.
type dailyInterpretation struct {
	Cards          []models.Card `json:"cards"`
	Interpretation string        `json:"interpretation"`
}

// Create выполняет расклад kind для пользователя userUID.
//
// Порядок строго фиксирован: права проверяются до обращения к ИИ,
// а потребление записывается только после успешного сохранения расклада —
// неудачный запрос к ИИ не расходует бесплатную попытку.
func (s *ReadingService) Create(ctx context.Context, userUID, kind, question string) (*Result, error) {
	const op = "reading.Create"
	now := s.now()

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := entitlement.Evaluate(user, now)
	if !res.CanUse(kind) {
		return nil, &AccessError{
			Message:     entitlement.RestrictionMessage(kind, res),
			Entitlement: res,
		}
	}

	cards, interpretation, err := s.produce(ctx, user, kind, question, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reading := models.Reading{
		UserUID:        userUID,
		Kind:           kind,
		Question:       question,
		Cards:          cards,
		Interpretation: interpretation,
		CreatedAt:      now,
	}
	if _, err := s.repo.CreateReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.recorder.Record(ctx, user, kind); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReadingsTotal.WithLabelValues(kind).Inc()
	return &Result{
		Cards:          cards,
		Interpretation: interpretation,
		Entitlement:    entitlement.Evaluate(user, now),
	}, nil
}

// produce вытягивает карты и получает интерпретацию. Совет дня мемоизируется
// на сутки: повторный запрос после сбоя сохранения вернёт те же карты.
func (s *ReadingService) produce(ctx context.Context, user *models.User, kind, question string, now time.Time) ([]models.Card, string, error) {
	if kind == models.ReadingDaily {
		key := dailyCacheKey(user.UUID, now)

		var cached dailyInterpretation
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("daily interpretation cache unavailable", sl.Err(err))
		}
		if found {
			return cached.Cards, cached.Interpretation, nil
		}

		cards, interpretation, err := s.draw(ctx, kind, question)
		if err != nil {
			return nil, "", err
		}
		if err := s.cache.Set(ctx, key, dailyInterpretation{Cards: cards, Interpretation: interpretation}, 24*time.Hour); err != nil {
			s.log.Warn("failed to memoize daily interpretation", sl.Err(err))
		}
		return cards, interpretation, nil
	}

	return s.draw(ctx, kind, question)
}

func (s *ReadingService) draw(ctx context.Context, kind, question string) ([]models.Card, string, error) {
	n := dailyCards
	switch kind {
	case models.ReadingYesNo:
		n = yesNoCards
	case models.ReadingThreeCards:
		n = threeCardsCount
	}

	cards, err := tarot.Draw(n)
	if err != nil {
		return nil, "", err
	}

	interpretation, err := s.interpreter.Interpret(ctx, kind, question, cards)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInterpretation, err)
	}
	return cards, interpretation, nil
}

// History возвращает последние расклады пользователя в пределах его лимита.
// Для бесплатного тарифа история закрыта и возвращается AccessError.
func (s *ReadingService) History(ctx context.Context, userUID string) ([]*models.Reading, error) {
	const op = "reading.History"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := entitlement.Evaluate(user, s.now())
	if res.HistoryLimit == 0 {
		return nil, &AccessError{
			Message:     entitlement.RestrictionMessage("", res),
			Entitlement: res,
		}
	}

	readings, err := s.repo.ListReadings(ctx, userUID, res.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return readings, nil
}

// Profile возвращает пользователя вместе с текущими правами.
func (s *ReadingService) Profile(ctx context.Context, userUID string) (*models.User, entitlement.Result, error) {
	const op = "reading.Profile"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, entitlement.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, entitlement.Evaluate(user, s.now()), nil
}

func dailyCacheKey(userUID string, now time.Time) string {
	return "daily-interp:" + userUID + ":" + now.UTC().Format("2006-01-02")
}
