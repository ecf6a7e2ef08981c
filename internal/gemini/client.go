package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient определяет интерфейс для работы с Gemini API.
// Это позволяет легко создавать моки для тестирования.
type GeminiClient interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client *genai.Client
}

// Убеждаемся, что Client реализует интерфейс GeminiClient.
var _ GeminiClient = (*Client)(nil)

// NewClient создаёт новый клиент для работы с Gemini API.
// Ключ передаётся явно, SDK не читает его из окружения.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	return newClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// newClient позволяет тестам подменить адрес API через HTTPOptions.BaseURL.
func newClient(ctx context.Context, cfg *genai.ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client: client,
	}, nil
}

// GenerateText отправляет один запрос к Gemini API и возвращает текстовый ответ.
// Повторов и стриминга нет: любая ошибка сразу возвращается вызывающему.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text, err := result.Text()
	if err != nil {
		return "", fmt.Errorf("get text from result: %w", err)
	}
	return text, nil
}
