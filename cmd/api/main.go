package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/product_catalog/internal/config"
	"github.com/Pesokrava/product_catalog/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/product_catalog/internal/delivery/http"
	"github.com/Pesokrava/product_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/product_catalog/internal/domain"
	"github.com/Pesokrava/product_catalog/internal/pkg/clock"
	"github.com/Pesokrava/product_catalog/internal/pkg/database"
	"github.com/Pesokrava/product_catalog/internal/pkg/kv"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
	"github.com/Pesokrava/product_catalog/internal/pkg/metrics"
	"github.com/Pesokrava/product_catalog/internal/pkg/search"
	esRepo "github.com/Pesokrava/product_catalog/internal/repository/elasticsearch"
	"github.com/Pesokrava/product_catalog/internal/repository/guard"
	"github.com/Pesokrava/product_catalog/internal/repository/memory"
	"github.com/Pesokrava/product_catalog/internal/repository/postgres"
	"github.com/Pesokrava/product_catalog/internal/usecase/product"

	_ "github.com/Pesokrava/product_catalog/docs"
)

// @title Product Catalog API
// @version 1.0
// @description Product catalog with embedded reviews and suppliers, backed by a document store.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @tag.name Products
// @tag.description Product catalog endpoints

const (
	connectRetries    = 10
	connectRetryDelay = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env).WithLevel(cfg.LogLevel)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Product Catalog API...")

	repo, closeStore, err := openStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open product store", err)
	}
	defer closeStore()

	var nameGuard product.NameGuard
	if cfg.NameGuard.Enabled {
		appLogger.Info("Connecting to Redis...")
		redisClient, err := kv.WaitForRedis(cfg, connectRetries, connectRetryDelay)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", err)
		}
		defer redisClient.Close()
		nameGuard = guard.NewRedisNameGuard(redisClient, cfg.NameGuard.TTL)
		appLogger.Infof("Name guard enabled with TTL %s", cfg.NameGuard.TTL)
	}

	var publisher product.EventPublisher
	if cfg.NATS.EventsEnabled {
		appLogger.Info("Connecting to NATS...")
		natsPublisher, err := events.NewPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create NATS publisher", err)
		}
		defer natsPublisher.Close()

		if err := events.NewStreamManager(natsPublisher.JetStream(), appLogger).EnsureStream(); err != nil {
			appLogger.Fatal("Failed to ensure JetStream stream", err)
		}
		publisher = natsPublisher
	}

	productService := product.NewService(repo, nameGuard, publisher, clock.NewRealClock(), appLogger)
	productHandler := handler.NewProductHandler(productService, appLogger)

	router := httpDelivery.NewRouter(productHandler, metrics.NewHTTPMetrics(), cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
		return
	}

	appLogger.Info("Server stopped gracefully")
}

// openStore connects the configured document store and returns it with
// a function releasing its resources.
func openStore(cfg *config.Config, appLogger *logger.Logger) (domain.ProductRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreElasticsearch:
		appLogger.Info("Connecting to Elasticsearch...")
		client, err := search.WaitForElasticsearch(cfg, connectRetries, connectRetryDelay)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		created, err := search.EnsureIndex(ctx, client, cfg.Elasticsearch.Index)
		if err != nil {
			return nil, nil, err
		}
		if created {
			appLogger.Infof("Created index %s", cfg.Elasticsearch.Index)
		}

		appLogger.Info("Connected to Elasticsearch successfully")
		return esRepo.NewProductRepository(client, cfg.Elasticsearch.Index, cfg.Elasticsearch.MaxResults), func() {}, nil

	case config.StorePostgres:
		appLogger.Info("Connecting to PostgreSQL...")
		db, err := database.WaitForDB(cfg, connectRetries, connectRetryDelay)
		if err != nil {
			return nil, nil, err
		}

		if err := database.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}

		appLogger.Info("Connected to PostgreSQL successfully")
		return postgres.NewProductRepository(db), func() { db.Close() }, nil

	default:
		appLogger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewProductRepository(), func() {}, nil
	}
}
