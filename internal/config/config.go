package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Root объединяет все конфигурационные блоки.
	// Файл необязателен: пустые поля заполняются WithDefaults.
	Root struct {
		Relay    Relay    `yaml:"relay"`
		HTTP     HTTP     `yaml:"http"`
		Telegram Telegram `yaml:"telegram"`
	}

	// Relay описывает тексты ответов и ограничения на ответ модели.
	Relay struct {
		StartCommand   string `yaml:"start_command"`
		Greeting       string `yaml:"greeting"`
		Placeholder    string `yaml:"placeholder"`      // Отправляется, если модель вернула пустой текст
		MaxReplyLength int    `yaml:"max_reply_length"` // Лимит Telegram на одно сообщение, в символах
	}

	// HTTP содержит параметры входящего сервера.
	HTTP struct {
		MaxBodyBytes      int64         `yaml:"max_body_bytes"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		ShutdownGrace     time.Duration `yaml:"shutdown_grace"`
	}

	// Telegram содержит параметры исходящих запросов к Bot API.
	Telegram struct {
		APIBaseURL     string        `yaml:"api_base_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	}
)

// Значения по умолчанию.
const (
	DefaultStartCommand   = "/start"
	DefaultGreeting       = "已連線。直接輸入文字即可。"
	DefaultPlaceholder    = "（無輸出）"
	DefaultMaxReplyLength = 4096
	DefaultMaxBodyBytes   = 1 << 20
	DefaultAPIBaseURL     = "https://api.telegram.org"
)

// Defaults возвращает конфигурацию, совпадающую с поведением без файла.
func Defaults() Root {
	return Root{}.WithDefaults()
}

// WithDefaults заполняет нулевые поля значениями по умолчанию.
func (r Root) WithDefaults() Root {
	if r.Relay.StartCommand == "" {
		r.Relay.StartCommand = DefaultStartCommand
	}
	if r.Relay.Greeting == "" {
		r.Relay.Greeting = DefaultGreeting
	}
	if r.Relay.Placeholder == "" {
		r.Relay.Placeholder = DefaultPlaceholder
	}
	if r.Relay.MaxReplyLength <= 0 {
		r.Relay.MaxReplyLength = DefaultMaxReplyLength
	}

	if r.HTTP.MaxBodyBytes <= 0 {
		r.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if r.HTTP.ReadHeaderTimeout <= 0 {
		r.HTTP.ReadHeaderTimeout = 10 * time.Second
	}
	if r.HTTP.ReadTimeout <= 0 {
		r.HTTP.ReadTimeout = 30 * time.Second
	}
	if r.HTTP.IdleTimeout <= 0 {
		r.HTTP.IdleTimeout = 60 * time.Second
	}
	if r.HTTP.ShutdownGrace <= 0 {
		r.HTTP.ShutdownGrace = 30 * time.Second
	}

	if r.Telegram.APIBaseURL == "" {
		r.Telegram.APIBaseURL = DefaultAPIBaseURL
	}
	if r.Telegram.RequestTimeout <= 0 {
		r.Telegram.RequestTimeout = 15 * time.Second
	}
	return r
}

// LoadRoot читает файл конфигурации. Пустой путь или отсутствующий файл
// дают конфигурацию по умолчанию.
func LoadRoot(path string) (Root, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg.WithDefaults(), nil
}
