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

	"github.com/Dosada05/raceday/config"
	"github.com/Dosada05/raceday/db"
	"github.com/Dosada05/raceday/handlers"
	"github.com/Dosada05/raceday/live"
	"github.com/Dosada05/raceday/repositories"
	api "github.com/Dosada05/raceday/routes"
	"github.com/Dosada05/raceday/services"
	"github.com/Dosada05/raceday/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

// @title Raceday API
// @version 1.0
// @description Club, player and team registration with race entries, participation and bib numbers.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("env", cfg.AppEnv))

	// Подключение к базе данных
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

	version, err := db.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date", slog.Uint64("version", uint64(version)))

	// Хранилище платёжных квитанций (Cloudflare R2) подключается только при полной конфигурации
	var uploader storage.FileUploader
	if cfg.StorageConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
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
		logger.Warn("R2 storage is not configured, payment slip uploads are disabled")
	}

	// Инициализация WebSocket Hub
	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	tx := repositories.NewTransactor(dbConn)
	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	raceRepo := repositories.NewPostgresRaceRepository(dbConn)
	raceTeamRepo := repositories.NewPostgresRaceTeamRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	bibRepo := repositories.NewPostgresBibRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	clubService := services.NewClubService(clubRepo, cfg.JWTSecretKey, cfg.JWTTTL)
	playerService := services.NewPlayerService(playerRepo, teamRepo)
	teamService := services.NewTeamService(teamRepo, playerRepo, uploader, logger)
	teamAssignmentService := services.NewTeamAssignmentService(tx, playerRepo, teamRepo, participationRepo, bibRepo, logger)
	eventService := services.NewEventService(eventRepo, raceRepo)
	raceService := services.NewRaceService(tx, raceRepo, eventRepo, raceTeamRepo, participationRepo)
	raceDataService := services.NewRaceDataService(
		eventRepo,
		raceRepo,
		teamRepo,
		playerRepo,
		clubRepo,
		raceTeamRepo,
		participationRepo,
		bibRepo,
	)
	raceAssignmentService := services.NewRaceAssignmentService(
		tx,
		clubRepo,
		eventRepo,
		raceRepo,
		teamRepo,
		raceTeamRepo,
		participationRepo,
		raceDataService,
		hub,
		logger,
	)
	participationService := services.NewParticipationService(
		tx,
		raceRepo,
		teamRepo,
		playerRepo,
		raceTeamRepo,
		participationRepo,
		bibRepo,
		hub,
		logger,
	)
	bibService := services.NewBibService(bibRepo, playerRepo, eventRepo, clubRepo, hub, logger)
	dashboardService := services.NewDashboardService(clubRepo, playerRepo, teamRepo)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	handlers.ConfigureErrors(logger, cfg.IsDevelopment())
	h := api.Handlers{
		Club:          handlers.NewClubHandler(clubService),
		Player:        handlers.NewPlayerHandler(playerService, teamAssignmentService),
		Roster:        handlers.NewRosterHandler(teamAssignmentService),
		Team:          handlers.NewTeamHandler(teamService),
		RaceTeam:      handlers.NewRaceTeamHandler(raceAssignmentService, participationService),
		Participation: handlers.NewParticipationHandler(participationService),
		Bib:           handlers.NewBibHandler(bibService),
		Event:         handlers.NewEventHandler(eventService, raceService, raceDataService),
		Race:          handlers.NewRaceHandler(raceService),
		Dashboard:     handlers.NewDashboardHandler(dashboardService),
		WebSocket:     handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins, logger),
		Health:        handlers.NewHealthHandler(dbConn),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			hub.Stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		// Hijacked websocket-соединения не закрываются Shutdown, поэтому хаб останавливается отдельно.
		hub.Stop()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
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
