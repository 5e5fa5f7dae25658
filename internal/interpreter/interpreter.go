// Package interpreter формирует текстовые интерпретации раскладов
// через OpenAI Chat Completions.
package interpreter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/taroteka/tarot-miniapp/internal/config"
	"github.com/taroteka/tarot-miniapp/internal/models"
)

// Interpreter описывает генератор интерпретаций раскладов.
type Interpreter interface {
	Interpret(ctx context.Context, kind, question string, cards []models.Card) (string, error)
}

const systemPrompt = "Ты — опытный таролог. Дай тёплую и конкретную интерпретацию расклада " +
	"на русском языке, без эзотерического жаргона, не более четырёх абзацев."

// OpenAIInterpreter реализует Interpreter поверх клиента OpenAI.
type OpenAIInterpreter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAI создаёт интерпретатор с настройками из конфига.
func NewOpenAI(cfg config.OpenAI) *OpenAIInterpreter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.TimeoutAI}
	return &OpenAIInterpreter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Interpret запрашивает у модели интерпретацию выпавших карт.
func (i *OpenAIInterpreter) Interpret(ctx context.Context, kind, question string, cards []models.Card) (string, error) {
	const op = "interpreter.Interpret"

	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       i.model,
		MaxTokens:   i.maxTokens,
		Temperature: i.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(kind, question, cards)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", op)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(kind, question string, cards []models.Card) string {
	var sb strings.Builder

	switch kind {
	case models.ReadingDaily:
		sb.WriteString("Расклад «Совет дня». ")
	case models.ReadingYesNo:
		sb.WriteString("Расклад «Да или нет». ")
	case models.ReadingThreeCards:
		sb.WriteString("Расклад «Три карты»: прошлое, настоящее, будущее. ")
	}

	if question != "" {
		sb.WriteString("Вопрос: ")
		sb.WriteString(question)
		sb.WriteString(". ")
	}

	sb.WriteString("Выпавшие карты: ")
	for idx, c := range cards {
		if idx > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
		if !c.Upright {
			sb.WriteString(" (перевёрнутая)")
		}
	}
	sb.WriteString(".")
	return sb.String()
}
