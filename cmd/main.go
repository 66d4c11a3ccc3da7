package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/textmatch/internal/api"
	"github.com/RishiKendai/textmatch/internal/config"
	"github.com/RishiKendai/textmatch/internal/configs/env"
	"github.com/RishiKendai/textmatch/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/textmatch/internal/infra/redis"
	"github.com/RishiKendai/textmatch/internal/jobs"
	"github.com/RishiKendai/textmatch/internal/logger"
	"github.com/RishiKendai/textmatch/internal/metrics"
	"github.com/RishiKendai/textmatch/internal/preprocess"
	"github.com/RishiKendai/textmatch/internal/repository"
	"github.com/RishiKendai/textmatch/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Starting textmatch server")

	metrics.InitPrometheus()
	metricsServer := api.StartMetricsServer(cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	mongoRepo := repository.NewMongoRepository(mongoClient)
	documentsRepo := repository.NewDocumentsRepository(mongoRepo)
	if err := documentsRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure document indexes")
	}

	var extractor *preprocess.ExtractorClient
	if cfg.ExtractorBaseURL != "" {
		extractor = preprocess.NewExtractorClient(cfg.ExtractorBaseURL, cfg.ExtractorAPIKey, cfg.ExtractorTimeout)
		log.Info().Str("url", cfg.ExtractorBaseURL).Msg("Remote extractor enabled")
	}
	documentSvc := preprocess.NewService(extractor, documentsRepo, cfg.MaxDocumentRunes)

	// the pool outlives ctx so queued jobs can drain on shutdown
	workerPool := jobs.NewWorkerPool(context.Background(), cfg.WorkerPoolSize)
	jobStore := jobs.NewStore(redisClient.Client, cfg.JobResultTTL)
	dispatcher := jobs.NewDispatcher(documentsRepo, jobStore, workerPool, jobs.DispatcherOptions{
		Timeout:               cfg.ComputationTimeout,
		DefaultMinMatchLength: cfg.DefaultMinMatchLength,
	})

	retryHandler := stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey)

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		dispatcher,
		retryHandler,
		cfg.StreamRetentionDuration,
	)
	log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer initialized")

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Redis consumer error")
		}
	}()

	handler := api.NewHandler(cfg, documentSvc, documentsRepo, dispatcher, jobStore)
	router := api.SetupRoutes(ctx, cfg, handler)
	srv := api.StartServer(router, cfg.ServerPort, "api")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	// stop reading new submissions, then let queued jobs finish
	cancel()
	<-consumerDone
	workerPool.Close()

	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
