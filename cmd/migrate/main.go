package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/memeplaza/meme-mining-server/mememiner"
	"github.com/memeplaza/meme-mining-server/mememiner/database"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/migration"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler("migrate")))

	configPath := flag.String("config", "config.toml", "path to config")
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "legacy MongoDB URI")
	mongoDB := flag.String("mongo-db", "memeplaza", "legacy MongoDB database name")
	batchSize := flag.Int("batch-size", 1000, "insert batch size")
	flag.Parse()

	cfg, err := mememiner.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	legacy, cleanup, err := migration.Connect(ctx, *mongoURI, *mongoDB)
	if err != nil {
		slog.Error("Failed to connect to legacy MongoDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	migrator := migration.NewMigrator(db.BunDB(), legacy)
	migrator.SetBatchSize(*batchSize)

	if err := migrator.MigrateAll(ctx); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Migration completed successfully!")
}
