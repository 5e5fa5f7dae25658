// Package reviewlist реализует HTTP-обработчик списка отзывов в админ-панели.
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

// Handler управляет HTTP-запросами списка отзывов для модерации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения отзывов по статусу.
type Service interface {
	List(ctx context.Context, status string) ([]*models.Review, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отзывы для модерации
// @Description Возвращает отзывы, опционально отфильтрованные по статусу.
// @Tags Admin
// @Produce  json
// @Param status query string false "Фильтр по статусу: pending, approved или rejected"
// @Success 200 {object} map[string]any "Список отзывов"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/reviews [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.reviewlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := r.URL.Query().Get("status")
	reviews, err := h.service.List(r.Context(), status)
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
