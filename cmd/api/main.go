package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/floodcast/floodcast-api/internal/account"
	"github.com/floodcast/floodcast-api/internal/adapter/bmkg"
	httpadapter "github.com/floodcast/floodcast-api/internal/adapter/http"
	kafkaadapter "github.com/floodcast/floodcast-api/internal/adapter/kafka"
	"github.com/floodcast/floodcast-api/internal/adapter/mlservice"
	"github.com/floodcast/floodcast-api/internal/adapter/store"
	"github.com/floodcast/floodcast-api/internal/auth"
	"github.com/floodcast/floodcast-api/internal/config"
	"github.com/floodcast/floodcast-api/internal/observability"
	"github.com/floodcast/floodcast-api/internal/pipeline"
	"github.com/floodcast/floodcast-api/internal/retry"
	"github.com/floodcast/floodcast-api/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	gin.SetMode(gin.ReleaseMode)

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	predictions := db.Predictions()

	authorizer := auth.NewAuthorizer(cfg.JWTSecret, cfg.TokenTTL)
	mlClient := mlservice.NewClient(cfg.MLServiceURL, cfg.MLTimeout,
		retry.Policy{MaxRetries: cfg.MLMaxRetries, Step: cfg.MLBackoffStep}, metrics, logger)

	// Prediction events are feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.EventPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("prediction events enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("prediction events disabled")
	}

	p := pipeline.New(authorizer, mlClient, predictions, publisher, logger, metrics)
	accounts := account.NewService(db.Users(), authorizer, logger)

	areas := make([]weather.Area, len(cfg.WeatherAreas))
	for i, a := range cfg.WeatherAreas {
		areas[i] = weather.Area{Name: a.Name, Adm4: a.Adm4}
	}
	forecasts := weather.NewService(
		bmkg.NewClient(cfg.BMKGBaseURL, cfg.WeatherTimeout, logger),
		areas,
		weather.Options{
			Interval: cfg.WeatherInterval,
			CacheTTL: cfg.WeatherCacheTTL,
			Timeout:  time.Duration(len(areas)) * (cfg.WeatherInterval + cfg.WeatherTimeout),
		},
		logger, metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Predictions: p,
		Records:     predictions,
		Accounts:    accounts,
		Weather:     forecasts,
		Auth:        authorizer,
		Ready:       db,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}
