// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demandcast/backend-go/internal/api"
	"github.com/demandcast/backend-go/internal/cache"
	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/features"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/demandcast/backend-go/internal/insight"
	"github.com/demandcast/backend-go/internal/repository/postgres"
	"github.com/demandcast/backend-go/internal/service"
	"github.com/demandcast/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize result cache; a cache failure never blocks startup
	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("result cache unavailable, running uncached")
		resultCache = cache.NewNoopResultCache()
	}

	// External collaborators
	forecaster := forecast.NewHTTPForecaster(
		cfg.Forecaster.EndpointURL,
		time.Duration(cfg.Forecaster.TimeoutSeconds)*time.Second,
	)

	var insightClient insight.Client
	if cfg.Insight.APIKey != "" {
		insightClient = insight.NewClient(insight.Config{
			BaseURL:   cfg.Insight.BaseURL,
			APIKey:    cfg.Insight.APIKey,
			Model:     cfg.Insight.Model,
			Timeout:   time.Duration(cfg.Insight.TimeoutSeconds) * time.Second,
			MaxTokens: cfg.Insight.MaxTokens,
		})
	} else {
		logger.Log.Warn().Msg("no insight api key configured, narrative falls back to templates")
	}

	builder := forecast.NewRequestBuilder(forecast.BuilderConfig{
		ContextLength:    cfg.Forecaster.ContextLength,
		PredictionLength: cfg.Forecaster.PredictionLength,
		MinHistoryPoints: cfg.Forecaster.MinHistoryPoints,
	}, features.NewCalendarEncoder())

	// Initialize services
	recommendationService := service.NewRecommendationService(
		postgres.NewOrderRepository(db),
		postgres.NewCatalogRepository(db),
		resultCache,
		forecaster,
		insightClient,
		builder,
	)
	feedbackService := service.NewFeedbackService(postgres.NewFeedbackRepository(db))

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		RecommendationService: recommendationService,
		FeedbackService:       feedbackService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
