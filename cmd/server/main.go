package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/ai"
	"github.com/xalleer/kitchen-os-backend/internal/config"
	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/router"
	"github.com/xalleer/kitchen-os-backend/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// dev: pretty console, prod: JSON
	dbLogLevel := logger.Warn
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		dbLogLevel = logger.Info
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(infra.DatabaseConfig{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        dbLogLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: in-process queue, cache and locks")
	}

	aiCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name:             "ai",
		FailureThreshold: cfg.AIBreakerThreshold,
		SuccessThreshold: 1,
		OpenTimeout:      cfg.AIBreakerCooldown,
	})
	text, closeText, err := newTextGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create AI client")
	}
	defer closeText()
	generator := ai.NewPlanGenerator(text, aiCB, cfg.AITimeout)

	// The meal plan service enqueues jobs and also runs them, so the dispatcher
	// is bound once the service exists.
	dispatcher := worker.NewDispatcher(rdb)
	svcs := router.NewServices(cfg, db, rdb, generator, dispatcher)
	dispatcher.Bind(svcs.MealPlans)

	worker.StartWorkerPool(ctx, rdb, svcs.MealPlans, cfg.WorkerPoolSize)
	poller := worker.NewPoller(worker.PollerConfig{
		Jobs:     svcs.MealPlans,
		Interval: cfg.JobPollInterval,
		Breaker:  aiCB,
		RDB:      rdb,
	})
	poller.Start(ctx)

	r := router.New(cfg, db, rdb, aiCB, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second, // synchronous generation waits on the model
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Int("port", cfg.Port).Str("ai_provider", cfg.AIProvider).Msg("kitchen-os backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	poller.Stop()
	cancel()
	dispatcher.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (ai.TextGenerator, func(), error) {
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), func() {}, nil
	case "gemini", "":
		client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
}
