package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/database"
	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/migrations"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	logger.Setup(config.GetEnvironment().String())
	defer logger.Sync()
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal(ctx, "failed to load configuration", zap.Error(err))
	}
	if cfg.DBDriver != "postgres" {
		logger.Fatal(ctx, "migrations only run against postgres; sqlite is auto-migrated")
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *rollback {
		name, err := database.Rollback(ctx, db.DB, migrations.FS)
		if errors.Is(err, database.ErrNoMigrations) {
			fmt.Println("No migrations to rollback")
			return
		}
		if err != nil {
			logger.Error(ctx, "rollback failed", zap.Error(err))
			os.Exit(1)
		}
		fmt.Printf("Successfully rolled back migration: %s\n", name)
		return
	}

	applied, err := database.Migrate(ctx, db.DB, migrations.FS)
	for _, name := range applied {
		fmt.Printf("Applied migration: %s\n", name)
	}
	if err != nil {
		logger.Error(ctx, "migration failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println("All migrations applied successfully.")
}
