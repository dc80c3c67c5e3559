// Package bootstrap builds the shared component graph used by the API and
// worker binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/pdfchat/internal/cache"
	"github.com/nikhilbhutani/pdfchat/internal/chat"
	"github.com/nikhilbhutani/pdfchat/internal/config"
	"github.com/nikhilbhutani/pdfchat/internal/database"
	"github.com/nikhilbhutani/pdfchat/internal/document"
	"github.com/nikhilbhutani/pdfchat/internal/embedding"
	"github.com/nikhilbhutani/pdfchat/internal/ingest"
	"github.com/nikhilbhutani/pdfchat/internal/llm"
	"github.com/nikhilbhutani/pdfchat/internal/store"
	"github.com/nikhilbhutani/pdfchat/internal/vectorstore"
)

var (
	ErrDatabaseRequired = errors.New("DATABASE_URL is required")
	ErrSharedVectors    = errors.New("a shared vector backend (pgvector or qdrant) is required")
)

type Options struct {
	// RequireDatabase fails startup instead of falling back to memory stores
	// for files, messages or vectors.
	RequireDatabase bool
}

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Store    store.DocumentStore
	Vectors  vectorstore.VectorStore
	Gateway  llm.Gateway
	Embedder *embedding.Service
	Ingest   *ingest.Pipeline

	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	if err := app.initStore(ctx, opts); err != nil {
		app.Close()
		return nil, err
	}
	app.initRedis(ctx)

	gw, err := llm.NewGateway(ctx, cfg.LLM, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init llm gateway: %w", err)
	}
	app.Gateway = gw

	embedOpts := []embedding.Option{embedding.WithLogger(logger)}
	if app.Redis != nil {
		embedOpts = append(embedOpts, embedding.WithCache(cache.NewCache(app.Redis, "pdfchat:"), cfg.Embedding.CacheTTL))
	}
	app.Embedder = embedding.NewService(gw, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Vector.Dimension, embedOpts...)

	if err := app.initVectors(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if opts.RequireDatabase && !app.Durable() {
		app.Close()
		return nil, ErrSharedVectors
	}

	app.Ingest = ingest.NewPipeline(
		app.Store,
		document.NewHTTPFetcher(cfg.Storage.MaxUploadSize),
		document.PDFSplitter{},
		app.Embedder,
		app.Vectors,
		logger,
	)
	return app, nil
}

// Durable reports whether state survives a restart and is shared between
// processes.
func (a *App) Durable() bool {
	if a.Pool == nil {
		return false
	}
	_, inMemory := a.Vectors.(*vectorstore.MemoryStore)
	return !inMemory
}

// ChatPipeline wires the answer path with the configured generation settings.
func (a *App) ChatPipeline() *chat.Pipeline {
	cc := a.Config.Chat
	thinking := 0
	return chat.NewPipeline(
		a.Store,
		a.Embedder,
		a.Vectors,
		chat.NewLLMGenerator(a.Gateway),
		chat.Config{
			TopK:         cc.TopK,
			HistoryLimit: cc.HistoryLimit,
			Generate: chat.GenerateOptions{
				Provider:       cc.Provider,
				Model:          cc.Model,
				Temperature:    cc.Temperature,
				MaxTokens:      cc.MaxTokens,
				ThinkingBudget: &thinking,
			},
		},
		a.Logger,
	)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) initStore(ctx context.Context, opts Options) error {
	if a.Config.Database.URL == "" {
		if opts.RequireDatabase {
			return ErrDatabaseRequired
		}
		a.Logger.Warn("DATABASE_URL not set, using in-memory stores")
		a.Store = store.NewMemoryStore()
		return nil
	}

	pool, err := database.NewPool(ctx, a.Config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := database.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	a.Pool = pool
	a.Store = store.NewPostgresStore(pool)
	return nil
}

func (a *App) initRedis(ctx context.Context) {
	rc := a.Config.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.Logger.Warn("redis unavailable, embedding cache disabled", "error", err)
		rdb.Close()
		return
	}
	a.Redis = rdb
	a.closers = append(a.closers, func() { rdb.Close() })
}

func (a *App) initVectors(ctx context.Context) error {
	vc := a.Config.Vector
	switch vc.Backend {
	case "pgvector":
		if a.Pool == nil {
			a.Logger.Warn("pgvector backend needs a database, using in-memory vectors")
			a.Vectors = vectorstore.NewMemoryStore(vc.Dimension)
			return nil
		}
		if vc.Dimension != database.ChunkDimension {
			return fmt.Errorf("pgvector schema stores %d dimensions, VECTOR_DIMENSION is %d", database.ChunkDimension, vc.Dimension)
		}
		a.Vectors = vectorstore.NewPgVectorStore(a.Pool, vc.Dimension)
	case "qdrant":
		client, err := vectorstore.NewQdrantClient(vc.QdrantAddr, vc.QdrantAPIKey)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { client.Close() })
		qs := vectorstore.NewQdrantStore(client, vc.QdrantCollection, vc.Dimension)
		if err := qs.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("prepare qdrant collection: %w", err)
		}
		a.Vectors = qs
	case "memory":
		a.Vectors = vectorstore.NewMemoryStore(vc.Dimension)
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", vc.Backend)
	}
	a.Logger.Info("vector store ready", "backend", vc.Backend, "dimension", vc.Dimension)
	return nil
}
