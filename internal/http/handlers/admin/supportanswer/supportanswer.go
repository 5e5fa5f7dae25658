// Package supportanswer реализует HTTP-обработчик ответа администратора
// на обращение. Пользователь получает ответ уведомлением в Telegram.
package supportanswer

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

// Handler управляет HTTP-запросами ответа на обращение.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс ответа на обращение.
type Service interface {
	Answer(ctx context.Context, id int, answer string) error
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
// @Summary Ответить на обращение
// @Description Сохраняет ответ администратора и уведомляет пользователя.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID обращения"
// @Param request body models.DummySupportAnswer true "Текст ответа"
// @Success 200 {object} response.Response "Ответ сохранён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Обращение не найдено"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/support/{id}/answer [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.supportanswer"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid request id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request id"))
		return
	}

	var req models.DummySupportAnswer
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

	if err := h.service.Answer(r.Context(), id, req.Answer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("support request not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("support request not found"))
			return
		}
		log.Error("failed to answer support request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not answer support request"))
		return
	}

	log.Info("support request answered", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
