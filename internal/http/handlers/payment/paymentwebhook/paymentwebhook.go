// Package paymentwebhook реализует HTTP-обработчик webhook-уведомлений ЮKassa.
//
// Подпись тела проверяется по HMAC-SHA256 с общим секретом. Ошибка обработки
// возвращает 500, чтобы ЮKassa повторила доставку уведомления.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/taroteka/tarot-miniapp/internal/http/response"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/paymentprovider"
)

// SignatureHeader — заголовок с HMAC-подписью тела уведомления.
const SignatureHeader = "X-Webhook-Signature"

// Handler управляет webhook-уведомлениями платежного шлюза.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// Service описывает интерфейс обработки событий платежей.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, event paymentprovider.WebhookEvent) error
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{log: log, service: service, webhookSecret: webhookSecret}
}

// ServeHTTP godoc
// @Summary Webhook ЮKassa
// @Description Принимает уведомления об изменении статуса платежа.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело уведомления"
// @Failure 401 {object} response.ErrorResponse "Недействительная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки, нужен повтор"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if h.webhookSecret != "" && !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		log.Error("webhook signature mismatch")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), event); err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("processing failed"))
		return
	}

	log.Info("webhook event processed", slog.String("event", event.Event))
	render.JSON(w, r, response.StatusOKWithData(nil))
}

func (h *Handler) verifySignature(body []byte, got string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(got))
}
