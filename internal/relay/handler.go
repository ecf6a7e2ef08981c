package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/maine/tg_gemini_relay/internal/config"
	"github.com/maine/tg_gemini_relay/internal/telegram"
)

// ErrNotConfigured возвращается, когда обработчик создан без обязательных зависимостей.
var ErrNotConfigured = errors.New("relay dependencies not configured")

// Generator получает ответ модели на текст пользователя.
type Generator interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Replier отправляет ответ в чат.
type Replier interface {
	Reply(ctx context.Context, chatID telegram.ChatID, text string) error
}

// HandlerDeps перечисляет зависимости обработчика.
type HandlerDeps struct {
	Generator Generator
	Replier   Replier
	Model     string
	Config    config.Relay
}

// Handler превращает одно обновление Telegram в не более чем один ответ модели.
type Handler struct {
	generator Generator
	replier   Replier
	model     string
	cfg       config.Relay
}

// NewHandler создаёт обработчик. Пустые поля Config получают значения по умолчанию.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	if deps.Generator == nil || deps.Replier == nil {
		return nil, ErrNotConfigured
	}
	if deps.Model == "" {
		deps.Model = config.DefaultGeminiModel
	}

	return &Handler{
		generator: deps.Generator,
		replier:   deps.Replier,
		model:     deps.Model,
		cfg:       config.Root{Relay: deps.Config}.WithDefaults().Relay,
	}, nil
}

// HandleUpdate обрабатывает обновление:
//   - нет chat id или текста: ничего не делает;
//   - команда /start: отправляет приветствие без обращения к модели;
//   - иначе: отправляет обрезанный ответ модели или заглушку, если он пуст.
//
// Ошибка модели возвращается без отправки ответа.
func (h *Handler) HandleUpdate(ctx context.Context, upd telegram.Update) error {
	chatID := upd.ChatID()
	text := upd.Text()
	if chatID.IsZero() || text == "" {
		return nil
	}

	if text == h.cfg.StartCommand {
		return h.reply(ctx, chatID, h.cfg.Greeting)
	}

	resp, err := h.generator.GenerateText(ctx, h.model, text)
	if err != nil {
		return fmt.Errorf("generate reply for chat %s: %w", chatID, err)
	}

	reply := trimReply(resp)
	if reply == "" {
		reply = h.cfg.Placeholder
	}
	return h.reply(ctx, chatID, reply)
}

func (h *Handler) reply(ctx context.Context, chatID telegram.ChatID, text string) error {
	for _, part := range SplitReply(text, h.cfg.MaxReplyLength) {
		if err := h.replier.Reply(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

// trimReply обрезает пробельные символы по краям ответа модели.
// BOM (U+FEFF) тоже считается пробелом, NEL (U+0085) - нет.
func trimReply(s string) string {
	return strings.TrimFunc(s, isTrimSpace)
}

func isTrimSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}
