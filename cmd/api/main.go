package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/answer"
	"github.com/subhakanta156/nobr-project/internal/config"
	"github.com/subhakanta156/nobr-project/internal/db"
	apihttp "github.com/subhakanta156/nobr-project/internal/http"
	"github.com/subhakanta156/nobr-project/internal/repository"
	"github.com/subhakanta156/nobr-project/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var sessionRepo repository.SessionRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			// Sin almacen no hay aplicacion; fallo fatal, sin reintentos silenciosos.
			logger.Fatal("db ping", zap.Error(err))
		}
		sessionRepo = repository.NewPgSessionRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory session store")
		sessionRepo = repository.NewMemorySessionRepository()
	}

	var titleIndex service.TitleIndex
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, title index disabled", zap.Error(err))
		} else {
			titleIndex = service.NewRedisTitleIndex(redisClient)
		}
		cancel()
	}

	manager := service.NewSessionManager(logger, sessionRepo, titleIndex)
	manager.MarkReady()

	chatbotClient := answer.NewHTTPClient(cfg.ChatbotBaseURL, logger)
	chatSvc := service.NewChatService(
		logger,
		manager,
		chatbotClient,
		nil, // headless: los clientes HTTP renderizan desde las respuestas
		chatbotClient.BaseURL(),
		time.Duration(cfg.GreetingDelayMS)*time.Millisecond,
	)

	chatHandler := apihttp.NewChatHandler(logger, chatSvc, manager)
	router := apihttp.NewRouter(logger, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("chatbot", cfg.ChatbotBaseURL),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
