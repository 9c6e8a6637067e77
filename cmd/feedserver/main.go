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

	redisDriver "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"notifyhub/internal/backend"
	"notifyhub/internal/config"
	"notifyhub/internal/handlers/feedserver"
	appKafka "notifyhub/internal/kafka"
	kafkahandlers "notifyhub/internal/kafka/handlers"
	appRedis "notifyhub/internal/redis"
	"notifyhub/internal/services"
	"notifyhub/internal/storage"
	"notifyhub/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().Str("version", cfg.AppVersion).Msg("feed server starting")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing database")
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Fatal().Err(err).Msg("migrating database tables")
	}

	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatal().Err(err).Msg("connecting to redis")
	}

	blacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	changes := appRedis.NewChangeFeed(redisClient, logger)

	userRepo := storage.NewGormUserRepository(db)
	groupRepo := storage.NewGormGroupRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	notificationRepo := storage.NewGormNotificationRepository(db)

	producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("creating kafka producer")
	}
	defer producer.Close()

	store := backend.NewStore(userRepo, groupRepo, friendReqRepo, friendshipRepo, notificationRepo, changes, producer, cfg.Kafka.DeliveryTopic, logger)

	notificationService := services.NewNotificationService(
		notificationRepo, friendReqRepo, friendshipRepo, userRepo,
		changes, producer, cfg.Kafka, logger,
	)
	interactionLogic := kafkahandlers.NewInteractionConsumerLogic(notificationService, logger)

	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("creating kafka consumer")
	}
	defer consumer.Close()

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	go func() {
		logger.Info().Str("topic", cfg.Kafka.InteractionsTopic).Msg("interaction consumer starting")
		err := consumer.Consume(consumerCtx, []string{cfg.Kafka.InteractionsTopic}, cfg.Kafka.ConsumerGroup, interactionLogic.HandleInteraction)
		if err != nil {
			logger.Error().Err(err).Msg("interaction consumer stopped with error")
		}
	}()

	hub := websocket.NewHub(store, logger)
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go hub.Run(hubCtx)

	wsHandler := feedserver.NewWebSocketHandler(hub, blacklist, cfg, logger)

	muxRouter := http.NewServeMux()
	muxRouter.HandleFunc(cfg.FeedServer.WebSocketPath, wsHandler.ServeWS)

	serverAddr := fmt.Sprintf("%s:%s", cfg.FeedServer.Host, cfg.FeedServer.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        muxRouter,
		ReadTimeout:    cfg.FeedServer.ReadTimeout,
		WriteTimeout:   cfg.FeedServer.WriteTimeout,
		MaxHeaderBytes: cfg.FeedServer.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Str("path", cfg.FeedServer.WebSocketPath).Msg("feed server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("feed server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("feed server shutting down")

	cancelConsumer()
	cancelHub()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("feed server shutdown failed")
	}
	logger.Info().Msg("feed server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("app", cfg.AppName).Logger()
}
