package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

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

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := runMigrations(db.WithContext(ctx)); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	for _, table := range migratedTables {
		log.Info("table ready", zap.String("table", table), zap.Bool("present", db.Migrator().HasTable(table)))
	}
	fmt.Fprintln(os.Stdout, "migrations completed")
}
