// Package paymentprovider реализует HTTP-клиент ЮKassa для создания платежей
// за подписку мини-приложения.
package paymentprovider

import "time"

// Amount представляет денежную сумму.
type Amount struct {
	Value    string `json:"value"`    // сумма, например "299.00"
	Currency string `json:"currency"` // валюта, например "RUB"
}

// CreatePaymentRequest представляет запрос на создание платежа.
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description,omitempty"`
	Confirmation Confirmation      `json:"confirmation"`
	Metadata     map[string]string `json:"metadata,omitempty"` // user_uid и др.
}

// Confirmation описывает способ подтверждения платежа пользователем.
type Confirmation struct {
	Type            string `json:"type"`                 // "redirect"
	ReturnURL       string `json:"return_url,omitempty"` // куда вернуть после оплаты
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// WebhookEvent представляет уведомление ЮKassa об изменении статуса платежа.
type WebhookEvent struct {
	Type   string        `json:"type"`  // "notification"
	Event  string        `json:"event"` // "payment.succeeded", "payment.canceled"
	Object WebhookObject `json:"object"`
}

// WebhookObject — объект платежа внутри webhook-уведомления.
type WebhookObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   Amount            `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// События webhook ЮKassa, обрабатываемые сервисом.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentCanceled  = "payment.canceled"
)

// CreatePaymentResponse представляет ответ на создание платежа.
type CreatePaymentResponse struct {
	ID           string       `json:"id"`     // ID платежа в ЮKassa
	Status       string       `json:"status"` // статус платежа, например "pending"
	Amount       Amount       `json:"amount"`
	Confirmation Confirmation `json:"confirmation"`
	CreatedAt    time.Time    `json:"created_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
