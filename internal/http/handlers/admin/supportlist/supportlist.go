// Package supportlist реализует HTTP-обработчик списка обращений
// для админ-панели.
package supportlist

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

// Handler управляет HTTP-запросами списка обращений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения обращений.
type Service interface {
	List(ctx context.Context, status string) ([]*models.SupportRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список обращений
// @Description Возвращает обращения в поддержку, опционально по статусу.
// @Tags Admin
// @Produce  json
// @Param status query string false "Фильтр по статусу: open или answered"
// @Success 200 {object} map[string]any "Список обращений"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/support [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.supportlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := r.URL.Query().Get("status")
	requests, err := h.service.List(r.Context(), status)
	if err != nil {
		log.Error("failed to list support requests", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load support requests"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"requests": requests,
		"count":    len(requests),
	}))
}
