// Package readingcreate реализует HTTP-обработчик выполнения раскладов.
//
// Один Handler обслуживает все виды раскладов: вид задаётся при создании.
// Совет дня не требует тела запроса, остальные расклады принимают вопрос.
// При отказе по правам возвращается 403 с предложением оформить подписку.
package readingcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/taroteka/tarot-miniapp/internal/http/middlewarectx"
	"github.com/taroteka/tarot-miniapp/internal/http/response"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/services/entitlement"
	"github.com/taroteka/tarot-miniapp/internal/services/reading"
)

// Handler управляет HTTP-запросами на выполнение расклада одного вида.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	kind     string
}

// Service описывает интерфейс бизнес-логики раскладов.
type Service interface {
	Create(ctx context.Context, userUID, kind, question string) (*reading.Result, error)
}

// restrictionResponse — тело ответа 403 при исчерпанных правах.
type restrictionResponse struct {
	Error                string             `json:"error"`
	SubscriptionRequired bool               `json:"subscriptionRequired"`
	SubscriptionInfo     entitlement.Result `json:"subscriptionInfo"`
}

// New создает новый Handler для расклада вида kind.
func New(log *slog.Logger, service Service, kind string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		kind:     kind,
	}
}

// ServeHTTP godoc
// @Summary Выполнить расклад
// @Description Выполняет расклад и возвращает карты с интерпретацией.
// @Tags Readings
// @Accept  json
// @Produce  json
// @Param request body models.DummyReadingRequest false "Вопрос к раскладу (не нужен для совета дня)"
// @Success 200 {object} map[string]any "Карты, интерпретация и текущие права"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} map[string]any "Бесплатная попытка исчерпана"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Сервис интерпретаций недоступен"
// @Router /readings/{kind} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reading.readingcreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("kind", h.kind),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var question string
	if h.kind != models.ReadingDaily {
		var req models.DummyReadingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("failed to decode request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
			return
		}
		question = req.Question
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.Create(r.Context(), userUID, h.kind, question)
	if err != nil {
		var accessErr *reading.AccessError
		if errors.As(err, &accessErr) {
			log.Info("reading denied by entitlement", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, restrictionResponse{
				Error:                accessErr.Message,
				SubscriptionRequired: true,
				SubscriptionInfo:     accessErr.Entitlement,
			})
			return
		}
		if errors.Is(err, reading.ErrInterpretation) {
			log.Error("interpretation service failed", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("interpretation service unavailable"))
			return
		}
		log.Error("failed to create reading", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not complete reading"))
		return
	}

	log.Info("reading completed", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(res))
}
