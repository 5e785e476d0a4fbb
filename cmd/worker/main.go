package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/iac-studio/blueprint/internal/queue/tasks"
	"github.com/iac-studio/blueprint/internal/repository"
	"github.com/iac-studio/blueprint/pkg/config"
	"github.com/iac-studio/blueprint/pkg/database"
	"github.com/iac-studio/blueprint/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.SnapshotsEnabled {
		log.Fatal("worker requires SNAPSHOTS_ENABLED=true")
	}

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close(db)

	var store repository.ProjectStore
	switch cfg.StorageDriver {
	case config.StorageRedis:
		rdb, err := database.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		defer rdb.Close()
		store = repository.NewRedisProjectStore(rdb, cfg.StorageKey)
	default:
		store = repository.NewPostgresProjectStore(db)
	}

	srv := asynq.NewServer(
		database.AsynqOpt(cfg.RedisAddr, cfg.RedisPassword),
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues:      map[string]int{"default": 1},
		},
	)

	handler := tasks.NewSnapshotTaskHandler(store, repository.NewSnapshotRepository(db), float64(cfg.CanvasWidth))
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeGraphSnapshot, handler.HandleSnapshot)

	if err := srv.Start(mux); err != nil {
		log.Fatal("asynq worker failed to start", zap.Error(err))
	}
	log.Info("asynq worker started", zap.Int("concurrency", cfg.AsynqConcurrency))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	// let in-flight snapshots finish
	srv.Shutdown()
}
