package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/elo-ledger/config"
	"github.com/Dosada05/elo-ledger/db"
	"github.com/Dosada05/elo-ledger/elo"
	"github.com/Dosada05/elo-ledger/handlers"
	"github.com/Dosada05/elo-ledger/live"
	"github.com/Dosada05/elo-ledger/repositories"
	api "github.com/Dosada05/elo-ledger/routes"
	"github.com/Dosada05/elo-ledger/services"
	"github.com/Dosada05/elo-ledger/storage"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Group logo storage is optional; without R2 credentials the logo
	// endpoints answer 503.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 credentials not set, logo uploads disabled")
	}

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	seasonRepo := repositories.NewPostgresSeasonRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	changeRepo := repositories.NewPostgresRatingChangeRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)
	logger.Info("Repositories initialized")

	engine := elo.NewEngine(cfg.EloKBase, cfg.EloKDecayGames)
	notifier := live.NewNotifier(wsHub)

	authService := services.NewAuthService(userRepo)
	groupService := services.NewGroupService(groupRepo, userRepo, uploader)
	seasonService := services.NewSeasonService(txRunner, groupRepo, seasonRepo)
	ratingService := services.NewRatingService(seasonRepo, ratingRepo, matchRepo, changeRepo)
	matchService := services.NewMatchService(
		txRunner,
		groupRepo,
		seasonRepo,
		ratingRepo,
		matchRepo,
		changeRepo,
		engine,
		cfg.EloInitialRating,
		notifier,
		logger,
	)
	logger.Info("Services initialized")

	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Group:     handlers.NewGroupHandler(groupService),
		Season:    handlers.NewSeasonHandler(seasonService, groupService),
		Match:     handlers.NewMatchHandler(matchService, groupService),
		Rating:    handlers.NewRatingHandler(ratingService),
		WebSocket: handlers.NewWebSocketHandler(wsHub),
	}
	router := api.InitRoutes(h, cfg.JWTSecretKey)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
