package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iac-studio/blueprint/internal/api"
	"github.com/iac-studio/blueprint/internal/api/handlers"
	mw "github.com/iac-studio/blueprint/internal/api/middleware"
	"github.com/iac-studio/blueprint/internal/queue/tasks"
	"github.com/iac-studio/blueprint/internal/repository"
	"github.com/iac-studio/blueprint/internal/services"
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

	log.Info("starting blueprint api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("snapshots", cfg.SnapshotsEnabled),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	checks := map[string]handlers.Check{}

	var db *gorm.DB
	if cfg.DatabaseURL != "" && (cfg.StorageDriver == config.StoragePostgres || cfg.SnapshotsEnabled) {
		db, err = database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.Close(db)
		checks["postgres"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
		log.Info("database connected")
	}

	var store repository.ProjectStore
	switch cfg.StorageDriver {
	case config.StorageRedis:
		rdb, err := database.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		store = repository.NewRedisProjectStore(rdb, cfg.StorageKey)
	default:
		store = repository.NewPostgresProjectStore(db)
	}

	var (
		snapshots repository.SnapshotRepository
		enqueuer  services.SnapshotEnqueuer
	)
	if cfg.SnapshotsEnabled {
		client := asynq.NewClient(database.AsynqOpt(cfg.RedisAddr, cfg.RedisPassword))
		defer client.Close()
		snapshots = repository.NewSnapshotRepository(db)
		enqueuer = tasks.NewEnqueuer(client, "")
	}

	svc := services.NewProjectService(store, snapshots, enqueuer)

	router := api.NewRouter(api.Dependencies{
		Service:     svc,
		Checks:      checks,
		RateLimiter: mw.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSOrigins,
		CanvasWidth: float64(cfg.CanvasWidth),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
