package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/product_catalog/internal/config"
	"github.com/Pesokrava/product_catalog/internal/delivery/events"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env).WithLevel(cfg.LogLevel)
	appLogger.Info("Starting catalog notifier...")

	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx, events.LoggingHandler(appLogger)); err != nil {
		appLogger.Error("Notifier stopped with error", err)
		return
	}

	appLogger.Info("Catalog notifier stopped")
}
