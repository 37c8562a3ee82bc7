package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"classservice/internal/cache"
	"classservice/internal/config"
	"classservice/internal/database/postgres"
	"classservice/internal/files"
	"classservice/internal/handler"
	"classservice/internal/identity"
	"classservice/internal/kafka"
	"classservice/internal/logging"
	"classservice/internal/service"
)

const (
	maxBodyBytes    = 12 << 20
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.GetConfig()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	logger := logging.New(zapLogger)

	db, err := postgres.New(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	storage, err := files.NewS3Storage(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize blob storage", zap.Error(err))
	}

	var events service.EventSender
	if cfg.KafkaBrokers != "" {
		sender := kafka.NewEventSender(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer sender.Close()
		events = sender
	}

	var listingCache handler.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal(ctx, "failed to parse redis url", zap.Error(err))
		}
		listingCache = cache.NewRedisCache(redis.NewClient(opts))
	}

	provider := identity.NewHTTPProvider(cfg.IdentityURL)

	scheduleService := service.NewScheduleService(db, db, logger)
	requestService := service.NewRequestService(db, db, db, scheduleService, events, logger)
	assignmentService := service.NewAssignmentService(db, db, storage, logger)
	notificationService := service.NewNotificationService(db)

	router := handler.NewRouter(
		logger,
		provider,
		handler.NewClassHandler(requestService, scheduleService, listingCache),
		handler.NewAssignmentHandler(assignmentService),
		handler.NewNotificationHandler(notificationService),
		db.Ping,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      http.MaxBytesHandler(router, maxBodyBytes),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server listening", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
