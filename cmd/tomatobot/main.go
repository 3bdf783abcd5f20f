package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/tomato-bot/internal/app"
	"github.com/Adda-Baaj/tomato-bot/internal/config"
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tomatobot failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("tomatobot starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := app.NewBot(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize bot", "error", err.Error())
		return err
	}

	if err := bot.Run(ctx); err != nil {
		logger.ErrorObj("run failed", "error", err.Error())
		return fmt.Errorf("bot run: %w", err)
	}
	return nil
}
