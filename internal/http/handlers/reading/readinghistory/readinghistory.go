// Package readinghistory реализует HTTP-обработчик истории раскладов.
// История доступна только подписчикам, в пределах их лимита.
package readinghistory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/taroteka/tarot-miniapp/internal/http/middlewarectx"
	"github.com/taroteka/tarot-miniapp/internal/http/response"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/services/entitlement"
	"github.com/taroteka/tarot-miniapp/internal/services/reading"
)

// Handler управляет HTTP-запросами истории раскладов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики истории.
type Service interface {
	History(ctx context.Context, userUID string) ([]*models.Reading, error)
}

type restrictionResponse struct {
	Error                string             `json:"error"`
	SubscriptionRequired bool               `json:"subscriptionRequired"`
	SubscriptionInfo     entitlement.Result `json:"subscriptionInfo"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История раскладов
// @Description Возвращает последние расклады пользователя в пределах лимита подписки.
// @Tags Readings
// @Produce  json
// @Success 200 {object} map[string]any "Список раскладов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} map[string]any "История недоступна на бесплатном тарифе"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /readings/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reading.readinghistory"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	readings, err := h.service.History(r.Context(), userUID)
	if err != nil {
		var accessErr *reading.AccessError
		if errors.As(err, &accessErr) {
			log.Info("history denied by entitlement", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, restrictionResponse{
				Error:                accessErr.Message,
				SubscriptionRequired: true,
				SubscriptionInfo:     accessErr.Entitlement,
			})
			return
		}
		log.Error("failed to list readings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load history"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"readings": readings,
		"count":    len(readings),
	}))
}
