package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tawafuqapp/tawafuq/config"
	"github.com/tawafuqapp/tawafuq/internal/cache"
	"github.com/tawafuqapp/tawafuq/internal/logger"
	"github.com/tawafuqapp/tawafuq/internal/queue"
	"github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/services"
	"github.com/tawafuqapp/tawafuq/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}

	queueRdb, err := config.QueueRedisClient()
	if err != nil {
		log.Fatalf("queue Redis init error: %v", err)
	}
	if queueRdb == nil {
		log.Fatal("QUEUE_REDIS_ADDR is not set; the worker needs a queue backend")
	}

	matchRepo := postgres.NewMatchRepo(config.PostgresDB)
	userRepo := postgres.NewUserRepo(config.PostgresDB)
	testRepo := postgres.NewTestResultRepo(config.PostgresDB)

	redisCache := cache.NewRedisCache(config.RedisClient)

	scoreSvc := services.NewScoreService(testRepo, matchRepo, redisCache, config.RedisClient, lg)
	// fan-out jobs re-enqueue pair jobs through the same stream
	compatSvc := services.NewCompatibilityService(userRepo, testRepo, matchRepo, queue.NewStreamDispatcher(queueRdb), lg)

	numWorkers := 3
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("invalid WORKER_CONCURRENCY: %q", v)
		}
		numWorkers = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := &workers.CompatWorkerPool{
		Redis:      queueRdb,
		Scores:     scoreSvc,
		Compat:     compatSvc,
		NumWorkers: numWorkers,
		Logger:     lg,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("worker start error: %v", err)
	}
	lg.WithField("workers", numWorkers).Info("compatibility worker started")

	<-ctx.Done()
	lg.Info("shutdown signal received, draining")
	pool.Wait()
	lg.Info("worker stopped")
}
