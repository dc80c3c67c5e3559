package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/pdfchat/internal/bootstrap"
	"github.com/nikhilbhutani/pdfchat/internal/config"
	"github.com/nikhilbhutani/pdfchat/internal/queue"
	"github.com/nikhilbhutani/pdfchat/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(context.Background(), cfg, logger, bootstrap.Options{RequireDatabase: true})
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Ingest.Concurrency,
			Logger:      newAsynqLogger(logger),
		},
	)

	registry := queue.NewHandlersRegistry()

	ingestWorker := workers.NewIngestWorker(app.Store, app.Ingest, logger)
	registry.Register(queue.TypeFileIngest, asynq.HandlerFunc(ingestWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Ingest.Concurrency)
	// Run blocks until SIGTERM or SIGINT and drains in-flight tasks before returning.
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		app.Close()
		os.Exit(1)
	}
}
