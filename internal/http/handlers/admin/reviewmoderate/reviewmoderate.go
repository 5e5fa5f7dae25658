// Package reviewmoderate реализует HTTP-обработчик решения модератора по отзыву.
package reviewmoderate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/taroteka/tarot-miniapp/internal/http/response"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/models"
	"github.com/taroteka/tarot-miniapp/internal/storage/repository"
)

// Handler управляет HTTP-запросами модерации отзывов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс модерации отзывов.
type Service interface {
	Moderate(ctx context.Context, id int, status string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Промодерировать отзыв
// @Description Одобряет или отклоняет отзыв и сбрасывает кеш публичного списка.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID отзыва"
// @Param request body models.DummyModerate true "Решение модератора"
// @Success 200 {object} response.Response "Решение сохранено"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Отзыв не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/reviews/{id}/moderate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.reviewmoderate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid review id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid review id"))
		return
	}

	var req models.DummyModerate
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

	if err := h.service.Moderate(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("review not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("review not found"))
			return
		}
		log.Error("failed to moderate review", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not moderate review"))
		return
	}

	log.Info("review moderated", slog.Int("id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
