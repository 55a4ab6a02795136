// Package aiclient оборачивает чат-комплишены OpenAI для генерации контента.
//
// Ответ модели обязан содержать JSON-объект; извлечение выполняется в три
// ступени с отдельной ошибкой на каждой (см. parse.go).
package aiclient

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/remedyhub/remedy-api/internal/config"
)

// Client клиент генерации контента.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// New создает клиент с настройками модели из конфига.
func New(cfg config.OpenAI) *Client {
	return &Client{
		api:         openai.NewClient(cfg.OpenAIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Complete отправляет сообщения модели и возвращает текст первого ответа.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "aiclient.Complete"
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices found", op)
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON выполняет запрос и извлекает из ответа JSON-объект в dst.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, dst any) error {
	const op = "aiclient.CompleteJSON"
	text, err := c.Complete(ctx, system, user)
	if err != nil {
		return err
	}
	if err := ExtractJSON(text, dst); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
