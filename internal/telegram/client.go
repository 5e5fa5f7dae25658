// Package telegram реализует минимальный клиент Bot API для отправки
// уведомлений пользователям и проверку initData мини-приложения.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client — HTTP-клиент Telegram Bot API.
type Client struct {
	botToken   string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Bot API.
func NewClient(botToken string) *Client {
	return &Client{
		botToken:   botToken,
		apiURL:     "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage отправляет текстовое сообщение пользователю в чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	const op = "telegram.SendMessage"

	body := sendMessageRequest{ChatID: chatID, Text: text}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s: %w", op, errors.New(apiResp.Description))
	}
	return nil
}
