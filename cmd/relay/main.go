package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maine/tg_gemini_relay/internal/config"
	"github.com/maine/tg_gemini_relay/internal/gemini"
	"github.com/maine/tg_gemini_relay/internal/relay"
	"github.com/maine/tg_gemini_relay/internal/server"
	"github.com/maine/tg_gemini_relay/internal/telegram"
)

var configPath string // --config, перекрывает RELAY_CONFIG

func main() {
	root := &cobra.Command{
		Use:          "relay",
		Short:        "Telegram webhook relay to Gemini",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to relay.yaml (default: $RELAY_CONFIG)")

	root.AddCommand(serveCmd())
	root.AddCommand(setWebhookCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE:  runServe,
	}
}

func setWebhookCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "set-webhook",
		Short: "Register the webhook URL and secret with Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			envCfg, rootCfg, err := loadConfig(config.LoadTelegramEnv)
			if err != nil {
				return err
			}

			tgClient := telegram.NewClient(envCfg.TelegramBotToken, rootCfg.Telegram)
			if err := tgClient.SetWebhook(cmd.Context(), url, envCfg.TelegramWebhookSecret); err != nil {
				return fmt.Errorf("set webhook: %w", err)
			}
			log.Printf("Webhook set to %s", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "public HTTPS URL of the /webhook route")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// Конфигурация проверяется до открытия сокета.
	envCfg, rootCfg, err := loadConfig(config.LoadEnvConfig)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geminiClient, err := gemini.NewClient(ctx, envCfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("failed to create Gemini client: %v", err)
	}
	tgClient := telegram.NewClient(envCfg.TelegramBotToken, rootCfg.Telegram)

	handler, err := relay.NewHandler(relay.HandlerDeps{
		Generator: geminiClient,
		Replier:   telegram.NewSender(tgClient),
		Model:     envCfg.GeminiModel,
		Config:    rootCfg.Relay,
	})
	if err != nil {
		log.Fatalf("init relay: %v", err)
	}

	srv := server.New(server.Deps{
		Addr:    envCfg.Addr(),
		Secret:  envCfg.TelegramWebhookSecret,
		Handler: handler,
		Config:  rootCfg.HTTP,
	})

	log.Printf("Relaying to model %s", envCfg.GeminiModel)
	return srv.ListenAndServe(ctx)
}

// loadConfig читает переменные окружения через loadEnv и необязательный YAML-файл.
func loadConfig(loadEnv func() (*config.EnvConfig, error)) (*config.EnvConfig, config.Root, error) {
	envCfg, err := loadEnv()
	if err != nil {
		return nil, config.Root{}, fmt.Errorf("load env config: %w", err)
	}

	path := configPath
	if path == "" {
		path = envCfg.ConfigPath
	}
	rootCfg, err := config.LoadRoot(path)
	if err != nil {
		return nil, config.Root{}, fmt.Errorf("load relay config: %w", err)
	}
	return envCfg, rootCfg, nil
}
