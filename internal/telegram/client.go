package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maine/tg_gemini_relay/internal/config"
)

// TelegramClient определяет интерфейс для работы с Telegram Bot API.
// Это позволяет легко создавать моки для тестирования.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID ChatID, text string) error
	SetWebhook(ctx context.Context, url string, secret string) error
}

// APIError возвращается, когда Bot API ответил статусом вне диапазона 2xx.
type APIError struct {
	Method     string
	StatusCode int
	// Diagnostic - разобранное тело ответа; nil, если тело не удалось разобрать.
	Diagnostic *APIResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed: status %d %s", e.Method, e.StatusCode, e.DiagnosticText())
}

// DiagnosticText возвращает тело ошибки в виде JSON или "null".
func (e *APIError) DiagnosticText() string {
	if e.Diagnostic == nil {
		return "null"
	}
	data, err := json.Marshal(e.Diagnostic)
	if err != nil {
		return "null"
	}
	return string(data)
}

// Client инкапсулирует работу с Telegram Bot API.
type Client struct {
	client *http.Client
	apiURL string
}

// Убеждаемся, что Client реализует интерфейс TelegramClient.
var _ TelegramClient = (*Client)(nil)

// NewClient создаёт клиента. token обязателен.
func NewClient(token string, cfg config.Telegram) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		apiURL: fmt.Sprintf("%s/bot%s", strings.TrimSuffix(cfg.APIBaseURL, "/"), token),
	}
}

// SendMessage отправляет текстовое сообщение.
func (c *Client) SendMessage(ctx context.Context, chatID ChatID, text string) error {
	return c.post(ctx, "sendMessage", OutgoingMessage{ChatID: chatID, Text: text})
}

// SetWebhook регистрирует URL вебхука вместе с секретом,
// который Telegram будет присылать в X-Telegram-Bot-Api-Secret-Token.
func (c *Client) SetWebhook(ctx context.Context, url string, secret string) error {
	payload := map[string]any{
		"url":             url,
		"secret_token":    secret,
		"allowed_updates": []string{"message"},
	}
	return c.post(ctx, "setWebhook", payload)
}

func (c *Client) post(ctx context.Context, method string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Diagnostic: decodeDiagnostic(resp.Body),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// decodeDiagnostic пытается разобрать тело ошибки. Любая ошибка разбора даёт nil.
func decodeDiagnostic(r io.Reader) *APIResponse {
	var diag APIResponse
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&diag); err != nil {
		return nil
	}
	return &diag
}
