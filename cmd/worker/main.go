package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	insightcache "github.com/balubo/insight-api/internal/cache"
	"github.com/balubo/insight-api/internal/config"
	"github.com/balubo/insight-api/internal/database"
	"github.com/balubo/insight-api/internal/insight"
	"github.com/balubo/insight-api/internal/logger"
	"github.com/balubo/insight-api/internal/queue"
	"github.com/balubo/insight-api/internal/services/ai"
	"github.com/balubo/insight-api/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for AI request logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Initialize repositories
	workRepo := database.NewWorkRepository(db)
	insightRepo := database.NewInsightRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq")

	// Optional summary enricher
	var aggregatorOpts []insight.Option
	if cfg.OpenAIKey != "" {
		enricher := ai.NewOpenAIEnricher(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		aggregatorOpts = append(aggregatorOpts, insight.WithEnricher(enricher))
		zapLogger.Info("summary_enricher_enabled", zap.String("model", cfg.AIModel))
	} else {
		zapLogger.Info("summary_enricher_disabled")
	}

	aggregator := insight.NewAggregator(workRepo, insightRepo, zapLogger, aggregatorOpts...)

	// Optional Redis-backed insight cache: when available the worker
	// invalidates stale cache entries after each recompute.
	var cache workers.InsightCacheInvalidator
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		zapLogger.Warn("invalid_redis_url_cache_invalidation_disabled", zap.Error(err))
	} else {
		redisClient := redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		cacheTTL := time.Duration(cfg.InsightCacheTTLSeconds) * time.Second
		cache = insightcache.NewInsightCache(redisClient, cacheTTL)
		zapLogger.Info("connected_to_redis")
	}

	analyzer := workers.NewInsightAnalyzer(aggregator, cache, jobQueue, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if err := analyzer.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	cancel()

	zapLogger.Info("worker_stopped")
}
