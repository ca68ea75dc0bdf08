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

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/config"
	"github.com/Dosada05/fjj-brasileirao/db"
	"github.com/Dosada05/fjj-brasileirao/handlers"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	api "github.com/Dosada05/fjj-brasileirao/routes"
	"github.com/Dosada05/fjj-brasileirao/services"
	"github.com/Dosada05/fjj-brasileirao/storage"
	"github.com/Dosada05/fjj-brasileirao/syncer"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Duration("sync_interval", cfg.SyncInterval),
		slog.String("group_schedule", string(cfg.GroupSchedule)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("database ready")

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)

	remote := storage.NewNoopRemoteStore()
	if cfg.RemoteStore.Enabled() {
		remote, err = storage.NewS3RemoteStore(ctx, storage.RemoteStoreConfig{
			EndpointURL:     cfg.RemoteStore.URL,
			AccessKeyID:     cfg.RemoteStore.AccessKeyID,
			SecretAccessKey: cfg.RemoteStore.SecretAccessKey,
			BucketName:      cfg.RemoteStore.Bucket,
			Region:          cfg.RemoteStore.Region,
			Prefix:          cfg.RemoteStore.Prefix,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize remote store: %w", err)
		}
		logger.Info("remote store enabled", slog.String("bucket", cfg.RemoteStore.Bucket))
	} else {
		logger.Info("remote store not configured, running on postgres only")
	}

	repos := repositories.NewPostgresRepositories(dbConn)
	txManager := repositories.NewTxManager(dbConn)
	collections := repos.Collections(txManager)

	clock := clockwork.NewRealClock()
	publisher := syncer.NewPublisher(wsHub, remote, collections, logger)
	defer publisher.Wait()

	league := services.NewServices(services.Deps{
		Repos:    repos,
		Tx:       txManager,
		Clock:    clock,
		Notifier: publisher,
		Logger:   logger,
	}, cfg.GroupSchedule)
	authService := services.NewAuthService(cfg.AdminPasswordHash, []byte(cfg.JWTSecretKey), clock, logger)

	reconciler, err := syncer.NewReconciler(remote, collections, syncer.ReconcilerOptions{
		Interval: cfg.SyncInterval,
		Clock:    clock,
		Pending:  publisher,
		Hub:      wsHub,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create sync reconciler: %w", err)
	}
	if err := reconciler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync reconciler: %w", err)
	}
	defer func() {
		if err := reconciler.Stop(); err != nil {
			logger.Error("failed to stop sync reconciler", slog.Any("error", err))
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Team:         handlers.NewTeamHandler(league.Teams, league.Players, league.Matches, league.Transfers),
		Player:       handlers.NewPlayerHandler(league.Players),
		Championship: handlers.NewChampionshipHandler(league.Championship, league.Matches),
		Match:        handlers.NewMatchHandler(league.Matches),
		Transfer:     handlers.NewTransferHandler(league.Transfers),
		History:      handlers.NewHistoryHandler(league.History),
		System:       handlers.NewSystemHandler(dbConn, reconciler, remote.Enabled()),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, cfg.AllowedOrigins, logger),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
