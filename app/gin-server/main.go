package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tawafuqapp/tawafuq/config"
	"github.com/tawafuqapp/tawafuq/internal/api/handlers"
	"github.com/tawafuqapp/tawafuq/internal/api/middleware"
	"github.com/tawafuqapp/tawafuq/internal/api/routes"
	"github.com/tawafuqapp/tawafuq/internal/cache"
	"github.com/tawafuqapp/tawafuq/internal/eventlog"
	"github.com/tawafuqapp/tawafuq/internal/logger"
	"github.com/tawafuqapp/tawafuq/internal/queue"
	mongorepo "github.com/tawafuqapp/tawafuq/internal/repositories/mongo"
	"github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/services"
	"github.com/tawafuqapp/tawafuq/internal/storage"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	lg.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	lg.Info("Redis connected")

	// durable event log is optional; without mongo an in-process ring serves
	var recorder eventlog.Recorder
	if os.Getenv("MONGO_URI") != "" {
		if err := config.InitMongo(); err != nil {
			log.Fatalf("MongoDB init error: %v", err)
		}
		if err := config.EnsureEventCollection(); err != nil {
			log.Fatalf("MongoDB event collection error: %v", err)
		}
		recorder = mongorepo.NewEventRepo(config.MongoDatabase())
		lg.Info("MongoDB connected, durable event log enabled")
	} else {
		capacity := eventlog.DefaultRingCapacity
		if v := os.Getenv("EVENT_LOG_CAPACITY"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				log.Fatalf("invalid EVENT_LOG_CAPACITY: %v", err)
			}
			capacity = n
		}
		recorder = eventlog.NewRing(capacity)
		lg.WithField("capacity", capacity).Info("in-process event log enabled")
	}

	matchRepo := postgres.NewMatchRepo(config.PostgresDB)
	userRepo := postgres.NewUserRepo(config.PostgresDB)
	testRepo := postgres.NewTestResultRepo(config.PostgresDB)
	photoRepo := postgres.NewPhotoRepo(config.PostgresDB)

	redisCache := cache.NewRedisCache(config.RedisClient)

	scoreSvc := services.NewScoreService(testRepo, matchRepo, redisCache, config.RedisClient, lg)

	// dispatcher selection: a queue backend makes recomputation asynchronous
	// with retry; without one jobs run inline in the request
	queueRdb, err := config.QueueRedisClient()
	if err != nil {
		log.Fatalf("queue Redis init error: %v", err)
	}

	var dispatcher queue.Dispatcher
	var compatSvc services.CompatibilityService
	if queueRdb != nil {
		dispatcher = queue.NewStreamDispatcher(queueRdb)
		lg.Info("queue dispatch enabled (redis streams)")
	} else {
		dispatcher = queue.NewInlineDispatcher(
			func(ctx context.Context, a, b string) error {
				_, err := scoreSvc.ComputePair(ctx, a, b)
				return err
			},
			func(ctx context.Context, userID string) error {
				return compatSvc.OnTestResultsChanged(ctx, userID)
			},
		)
		lg.Info("inline dispatch enabled (no QUEUE_REDIS_ADDR)")
	}
	compatSvc = services.NewCompatibilityService(userRepo, testRepo, matchRepo, dispatcher, lg)

	matchSvc := services.NewMatchService(matchRepo, userRepo, redisCache, recorder, lg)
	testSvc := services.NewTestResultService(testRepo, dispatcher, lg)

	var store storage.ObjectStore
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		s, err := storage.NewGCSStore(context.Background(), bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer s.Close()
		store = s
		lg.WithField("bucket", bucket).Info("photo storage enabled")
	} else {
		lg.Warn("GCS_BUCKET not set, photo endpoints disabled")
	}
	photoSvc := services.NewPhotoService(photoRepo, matchRepo, store, lg)

	r := gin.New()
	r.Use(middleware.RequestLogger(lg), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Match: handlers.NewMatchHandler(matchSvc, compatSvc),
		Test:  handlers.NewTestHandler(testSvc, compatSvc),
		Photo: handlers.NewPhotoHandler(photoSvc),
		Admin: handlers.NewAdminHandler(compatSvc, recorder),
		WS:    handlers.NewWSHandler(config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
