package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	"air24-backend/internal/config"
	"air24-backend/internal/handler"
	"air24-backend/internal/httpserver"
	"air24-backend/internal/llm"
	"air24-backend/internal/repository"
	"air24-backend/internal/service/extract"
	"air24-backend/internal/service/ingest"
	"air24-backend/internal/service/notify"
	"air24-backend/pkg/db"
	"air24-backend/pkg/logger"
	"air24-backend/pkg/mq"
	"air24-backend/pkg/redis"
	"air24-backend/pkg/util"
)

func main() {
	// Load config
	cfg := config.Load()

	logger := logger.NewLogger()
	defer logger.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init RabbitMQ Publisher (optional; claim.updated events are
	// fire-and-forget, the pipeline works without them)
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			logger.Warn("MQ unavailable, claim.updated events disabled", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Init Redis sender limiter (optional)
	var limiter *util.SenderLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewRedisClient(cfg.Redis)
		limiter = util.NewSenderLimiter(rdb, cfg.Limits.SenderPerHour, time.Hour)
	}

	// Init Repositories
	claimRepo := repository.NewClaimRepository(dbConn)
	unmatchedRepo := repository.NewUnmatchedEmailRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)

	// Init collaborators
	llmClient := llm.NewOpenAIClient(cfg.OpenAI)
	extractor := extract.NewExtractor(llmClient, cfg.OpenAI.Model, logger)
	fcmClient := notify.NewFCMClient(cfg.FCM)
	notifier := notify.NewNotifier(userRepo, fcmClient, logger)

	// Init Services
	var pub ingest.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	ingestService := ingest.NewService(extractor, claimRepo, unmatchedRepo, notifier, pub, limiter, logger)

	// Init Handlers
	ingestHandler := handler.NewIngestHandler(ingestService, logger)

	// Router
	router := httpserver.NewRouter(ingestHandler, dbConn, publisher, cfg.Auth.Secret)

	// Start server
	logger.Info("Starting email ingestion service", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}
