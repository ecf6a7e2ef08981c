package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const (
	// DefaultPort - порт HTTP-сервера, если PORT не задан.
	DefaultPort = "3000"
	// DefaultGeminiModel - модель Gemini, если GEMINI_MODEL не задан.
	DefaultGeminiModel = "gemini-3-flash-preview"
)

// ErrMissingEnv возвращается, когда обязательная переменная окружения пуста.
var ErrMissingEnv = errors.New("required environment variable is missing")

// EnvConfig содержит токены и другие переменные окружения.
// Загружается один раз при старте и дальше не меняется.
type EnvConfig struct {
	Port                  string
	TelegramBotToken      string
	TelegramWebhookSecret string
	GeminiAPIKey          string
	GeminiModel           string
	ConfigPath            string // RELAY_CONFIG, необязательный путь к YAML
}

// LoadEnvConfig читает переменные окружения и возвращает конфигурацию.
// Возвращает ошибку, если обязательные переменные отсутствуют или пустые.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg, err := LoadTelegramEnv()
	if err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey, err = required("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTelegramEnv читает только то, что нужно для работы с Bot API
// (токен и секрет вебхука); GEMINI_API_KEY не проверяется.
func LoadTelegramEnv() (*EnvConfig, error) {
	tgToken, err := required("TELEGRAM_BOT_TOKEN")
	if err != nil {
		return nil, err
	}
	tgSecret, err := required("TELEGRAM_WEBHOOK_SECRET")
	if err != nil {
		return nil, err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return nil, fmt.Errorf("PORT must be a TCP port number, got %q", port)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultGeminiModel
	}

	return &EnvConfig{
		Port:                  port,
		TelegramBotToken:      tgToken,
		TelegramWebhookSecret: tgSecret,
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           model,
		ConfigPath:            os.Getenv("RELAY_CONFIG"),
	}, nil
}

// Addr возвращает адрес для net/http.
func (c *EnvConfig) Addr() string {
	return ":" + c.Port
}

func required(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s: %w", name, ErrMissingEnv)
	}
	return v, nil
}
