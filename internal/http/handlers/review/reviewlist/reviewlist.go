// Package reviewlist реализует HTTP-обработчик публичного списка отзывов.
// Отдаёт только одобренные отзывы; в роутере закрыт кеширующим middleware.
package reviewlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/taroteka/tarot-miniapp/internal/http/response"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/models"
)

// Handler управляет HTTP-запросами списка отзывов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения одобренных отзывов.
type Service interface {
	ListApproved(ctx context.Context) ([]*models.Review, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Одобренные отзывы
// @Description Возвращает опубликованные отзывы пользователей.
// @Tags Reviews
// @Produce  json
// @Success 200 {object} map[string]any "Список отзывов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /reviews [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.reviewlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reviews, err := h.service.ListApproved(r.Context())
	if err != nil {
		log.Error("failed to list reviews", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load reviews"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"reviews": reviews,
		"count":   len(reviews),
	}))
}
