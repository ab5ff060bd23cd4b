package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/config"
	"github.com/ayush/habit-tracker/backend/internal/generation"
	"github.com/ayush/habit-tracker/backend/internal/habit"
	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/schedule"
	"github.com/ayush/habit-tracker/backend/internal/server"
	"github.com/ayush/habit-tracker/backend/internal/store"
	"github.com/ayush/habit-tracker/backend/internal/task"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile, Debug: cfg.Debug}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	// ── Persistence ──────────────────────────────────────────
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", "backend", cfg.StoreBackend, "error", err)
	}
	cleanups = append(cleanups, closeStore)
	logger.Info("store ready", "backend", cfg.StoreBackend)

	// ── Redis (token revocation) ─────────────────────────────
	var denylist auth.Denylist
	if cfg.RedisAddr != "" {
		redisDenylist, err := auth.DialRedisDenylist(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("redis connect", "error", err)
		}
		cleanups = append(cleanups, func() { redisDenylist.Close() })
		denylist = redisDenylist
	} else {
		logger.Warn("REDIS_ADDR not set; logout will not revoke tokens")
	}

	// ── MinIO (generation transcripts) ───────────────────────
	var transcripts schedule.Transcripts
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			logger.Fatal("minio connect", "error", err)
		}
		transcripts = minioStore
	}

	// ── Generation client ────────────────────────────────────
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; schedule generation will fail")
	}
	generator := generation.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.GenerationTimeout)

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	router := server.NewRouter(server.Deps{
		Auth:           auth.NewHandler(st, tokens, denylist),
		Habits:         habit.NewHandler(st, transcripts),
		Schedules:      schedule.NewHandler(st, generator, transcripts),
		Tasks:          task.NewHandler(st),
		Tokens:         tokens,
		Denylist:       denylist,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info("Backend listening", "port", cfg.Port, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// openStore connects the configured backend and returns a cleanup func.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	case config.BackendNative:
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			pgPool.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}

		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			pgPool.Close()
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			pgPool.Close()
			mongoClient.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}

		return store.NewNative(pgStore, mongoStore), func() {
			mongoClient.Disconnect(context.Background())
			pgPool.Close()
		}, nil

	default:
		return store.NewMemoryAPI(cfg.MemoryAPIURL, cfg.MemoryAPIKey, cfg.PersistenceTimeout), func() {}, nil
	}
}
