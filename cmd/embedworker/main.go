package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/infrastructure/config"
	"github.com/juancgarza/memex/infrastructure/di"
)

// Standalone embedding worker. Drains the embedding job outbox on an
// interval; run alongside the API when embedding refresh should not share a
// process with request handling.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	if _, err := container.IndexLoader.Load(ctx); err != nil {
		container.Logger.Error("Vector index load failed", zap.Error(err))
	}

	container.Worker.Start(ctx)
	container.Logger.Info("Embedding worker running",
		zap.Int("batchSize", cfg.WorkerBatchSize),
		zap.Duration("interval", cfg.WorkerInterval),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Stopping embedding worker...")
	container.Worker.Stop()

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
}
