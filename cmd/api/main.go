package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/pdfchat/internal/api"
	"github.com/nikhilbhutani/pdfchat/internal/api/handlers"
	"github.com/nikhilbhutani/pdfchat/internal/auth"
	"github.com/nikhilbhutani/pdfchat/internal/bootstrap"
	"github.com/nikhilbhutani/pdfchat/internal/config"
	"github.com/nikhilbhutani/pdfchat/internal/document"
	"github.com/nikhilbhutani/pdfchat/internal/ingest"
	"github.com/nikhilbhutani/pdfchat/internal/queue"
	"github.com/nikhilbhutani/pdfchat/internal/storage"
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

	ctx := context.Background()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	objects, err := storage.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to init object storage", "error", err)
		os.Exit(1)
	}

	// A separate worker cannot see in-memory state.
	mode := cfg.Ingest.Mode
	if mode == "queue" && !app.Durable() {
		slog.Warn("queue ingest needs a database and a shared vector backend, falling back to inline ingestion",
			"vector_backend", cfg.Vector.Backend)
		mode = "inline"
	}

	var trigger document.Trigger
	var inline *ingest.InlineTrigger
	switch mode {
	case "inline":
		inline = ingest.NewInlineTrigger(app.Ingest, cfg.Ingest.Timeout, logger)
		trigger = inline
	default:
		qc := queue.NewClient(cfg.Redis, cfg.Ingest.Timeout)
		defer qc.Close()
		trigger = qc
	}
	slog.Info("ingestion trigger ready", "mode", mode)

	checks := map[string]handlers.Check{}
	if app.Pool != nil {
		checks["database"] = app.Pool.Ping
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Auth:     auth.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Answerer: app.ChatPipeline(),
		Uploader: document.NewService(app.Store, objects, trigger, logger),
		Store:    app.Store,
		Checks:   checks,
		Logger:   logger,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	if inline != nil {
		inline.Wait()
	}
	slog.Info("server stopped")
}
