package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Update описывает входящее обновление вебхука.
// Все поля необязательны: Telegram присылает разные типы обновлений.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message представляет входящее сообщение.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	From      *User  `json:"from"`
	Chat      *Chat  `json:"chat"`
}

// User информация об авторе.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Chat описывает чат (личный/групповой).
type Chat struct {
	ID       ChatID `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

// ChatID возвращает идентификатор чата; нулевое значение, если его нет.
func (u Update) ChatID() ChatID {
	if u.Message == nil || u.Message.Chat == nil {
		return ChatID{}
	}
	return u.Message.Chat.ID
}

// Text возвращает текст сообщения; пустая строка, если его нет.
func (u Update) Text() string {
	if u.Message == nil {
		return ""
	}
	return u.Message.Text
}

// ChatID - идентификатор чата. В JSON может быть числом или строкой
// (например, "@channelname"); при отправке сохраняется исходный вид.
type ChatID struct {
	value  string
	quoted bool
}

// NewChatID создаёт числовой идентификатор.
func NewChatID(id int64) ChatID {
	return ChatID{value: strconv.FormatInt(id, 10)}
}

// ChatIDFromString создаёт строковый идентификатор.
func ChatIDFromString(id string) ChatID {
	return ChatID{value: id, quoted: true}
}

// IsZero сообщает, что идентификатор отсутствует (нет значения, числовой 0 или пустая строка).
func (c ChatID) IsZero() bool {
	return c.value == "" || (!c.quoted && c.value == "0")
}

func (c ChatID) String() string {
	return c.value
}

// MarshalJSON реализует json.Marshaler.
func (c ChatID) MarshalJSON() ([]byte, error) {
	if c.value == "" && !c.quoted {
		return []byte("null"), nil
	}
	if c.quoted {
		return json.Marshal(c.value)
	}
	return []byte(c.value), nil
}

// UnmarshalJSON реализует json.Unmarshaler.
func (c *ChatID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*c = ChatID{}
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChatID{value: s, quoted: true}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat id must be a number or a string: %w", err)
	}
	*c = ChatID{value: n.String()}
	return nil
}

// OutgoingMessage - тело запроса sendMessage.
type OutgoingMessage struct {
	ChatID ChatID `json:"chat_id"`
	Text   string `json:"text"`
}

// APIResponse - общая обёртка ответа Bot API.
type APIResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}
