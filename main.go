package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/memeplaza/meme-mining-server/api/handlers"
	"github.com/memeplaza/meme-mining-server/api/middleware"
	"github.com/memeplaza/meme-mining-server/mememiner"
	"github.com/memeplaza/meme-mining-server/mememiner/database"
	"github.com/memeplaza/meme-mining-server/mememiner/database/repositories"
	"github.com/memeplaza/meme-mining-server/mememiner/logger"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
	"github.com/memeplaza/meme-mining-server/mememiner/mysterybox"
	"github.com/memeplaza/meme-mining-server/mememiner/nft"
	"github.com/memeplaza/meme-mining-server/mememiner/progression"
	"github.com/memeplaza/meme-mining-server/mememiner/services"
	"github.com/memeplaza/meme-mining-server/mememiner/shop"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler("MemeMiner")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Meme Mining Server",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := mememiner.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Database ready",
		slog.Duration("took", time.Since(dbStartTime)))

	repos := repositories.NewRepositories(db.BunDB())

	indexer := nft.NewClient(cfg.OpenSea.BaseURL, cfg.OpenSea.APIKey)
	ownership := nft.NewOwnershipService(indexer, repos.User, nft.Contracts{
		Miner: cfg.OpenSea.MinerContract,
		Pass:  cfg.OpenSea.PassContract,
		Meme:  cfg.OpenSea.MemeContract,
	})

	badges := progression.NewEvaluator(repos.Badge)
	sessions := mining.NewSessionService(repos, ownership, badges)
	boxes := mysterybox.NewRoller(repos)
	storefront := shop.NewService(repos)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go mining.NewBoostSweeper(repos.Boost).Run(sweepCtx)

	spacesService := services.NewSpacesService(
		cfg.Spaces.Key,
		cfg.Spaces.Secret,
		cfg.Spaces.Region,
		cfg.Spaces.Bucket,
		cfg.Spaces.AvatarRoot,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Meme Mining Server",
		ServerHeader: "MemeMiner",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(middleware.LoggingMiddleware())

	webApp := &handlers.App{
		Repos:     repos,
		Sessions:  sessions,
		Boxes:     boxes,
		Shop:      storefront,
		Ownership: ownership,
		Spaces:    spacesService,
		Version:   version,
		Commit:    commit,
	}
	webApp.RegisterRoutes(app)

	slog.Info("Starting API server", slog.String("address", cfg.Server.Addr))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.Server.Addr); err != nil {
			slog.Error("Failed to start server", slog.Any("error", err))
		}
	}()

	<-sig
	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", slog.Any("error", err))
	}

	slog.Info("Shutdown complete")
}
