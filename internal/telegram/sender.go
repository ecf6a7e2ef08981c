package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Sender отправляет ответы в чат. Ошибки Bot API только логируются:
// повторов нет, вызывающий о них не узнаёт.
type Sender struct {
	client TelegramClient
}

// NewSender создаёт новый экземпляр отправителя.
func NewSender(client TelegramClient) *Sender {
	return &Sender{
		client: client,
	}
}

// Reply отправляет text в чат chatID.
// Возвращает ошибку только при сетевом сбое; ответ Bot API со статусом
// вне 2xx логируется вместе с телом ошибки.
func (s *Sender) Reply(ctx context.Context, chatID ChatID, text string) error {
	err := s.client.SendMessage(ctx, chatID, text)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		log.Printf("sendMessage failed: %d %s", apiErr.StatusCode, apiErr.DiagnosticText())
		return nil
	}
	return fmt.Errorf("send reply to chat %s: %w", chatID, err)
}
