package main

import (
	"Jarvis_Memory/backend/go/internal/config"
	"Jarvis_Memory/backend/go/internal/database/kafka"
	"Jarvis_Memory/backend/go/internal/database/milvus"
	"Jarvis_Memory/backend/go/internal/database/mongo"
	"Jarvis_Memory/backend/go/internal/database/neo4j"
	"Jarvis_Memory/backend/go/internal/database/redis"
	"Jarvis_Memory/backend/go/internal/embedding"
	"Jarvis_Memory/backend/go/internal/memory/api"
	"Jarvis_Memory/backend/go/internal/memory/consumer"
	"Jarvis_Memory/backend/go/internal/memory/service"
	"Jarvis_Memory/backend/go/internal/memory/store"
	"Jarvis_Memory/backend/go/pkg/logger"
	"Jarvis_Memory/backend/go/pkg/ratelimiter"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("memory_service", "", "")

	// Initialize database clients
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := redis.Connect(ctx, &cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer redisClient.Close()

	mongoClient, err := mongo.Connect(ctx, &cfg.Databases.MongoDB)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mongoClient.Close(context.Background())

	neo4jClient, err := neo4j.Connect(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer neo4jClient.Close(context.Background())

	milvusClient, err := milvus.Connect(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}

	kafkaClient, err := kafka.Connect(&cfg.Databases.Kafka)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer kafkaClient.Close()

	// Initialize the embedder
	embedder, err := embedding.NewEmdModel(&cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize store adapters and the engine
	stores := service.Stores{
		Cache:     store.NewRedisStore(redisClient),
		Documents: store.NewMongoStore(mongoClient),
		Graph:     store.NewNeo4jStore(neo4jClient),
		Vectors:   store.NewMilvusStore(milvusClient, embedder),
	}
	memoryService := service.NewMemoryService(stores, cfg.Engine, appLogger)

	// Start the Kafka consumer
	kafkaConsumer := consumer.NewKafkaConsumer(kafkaClient, memoryService, appLogger)
	kafkaConsumer.Start(ctx)

	// Start the HTTP API
	var limiter ratelimiter.RateLimiter
	if cfg.RateLimiter.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.RateLimiter.Rate, cfg.RateLimiter.Capacity)
	}
	handler := api.NewHandler(memoryService, map[string]api.HealthChecker{
		"redis":  redisClient,
		"mongo":  mongoClient,
		"neo4j":  neo4jClient,
		"milvus": milvusClient,
	})
	router := api.SetupRouter(handler, limiter)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err.Error())
		}
	}()
	appLogger.Info("memory service started on " + cfg.Server.Address)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown: stop the consumer, then drain the HTTP server.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err.Error())
	}

	appLogger.Info("memory service stopped")
}
