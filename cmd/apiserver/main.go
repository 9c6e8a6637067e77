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

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"notifyhub/internal/backend"
	"notifyhub/internal/config"
	"notifyhub/internal/handlers/apiserver"
	appKafka "notifyhub/internal/kafka"
	"notifyhub/internal/middleware"
	appRedis "notifyhub/internal/redis"
	"notifyhub/internal/services"
	"notifyhub/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().Str("version", cfg.AppVersion).Msg("api server starting")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing database")
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Warn().Err(err).Msg("database migration failed")
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
	postRepo := storage.NewGormPostRepository(db)

	producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("creating kafka producer")
	}
	defer producer.Close()

	store := backend.NewStore(userRepo, groupRepo, friendReqRepo, friendshipRepo, notificationRepo, changes, producer, cfg.Kafka.DeliveryTopic, logger)

	authService := services.NewAuthService(userRepo, blacklist, cfg)
	userService := services.NewUserService(userRepo)
	friendReqService := services.NewFriendRequestService(userRepo, friendReqRepo, friendshipRepo, store, producer, cfg.Kafka)
	groupService := services.NewGroupService(groupRepo, userRepo, producer, cfg.Kafka)
	postService := services.NewPostService(postRepo, userRepo, producer, cfg.Kafka)

	authHandler := apiserver.NewAuthHandler(authService)
	userHandler := apiserver.NewUserHandler(userService)
	friendReqHandler := apiserver.NewFriendRequestHandler(friendReqService)
	groupHandler := apiserver.NewGroupHandler(groupService)
	postHandler := apiserver.NewPostHandler(postService)

	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, blacklist)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	apiRouter.HandleFunc("/users/me", userHandler.GetMyProfileHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMyProfileHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends", friendReqHandler.ListFriendsHandler).Methods(http.MethodGet)

	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("", friendReqHandler.SendFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/pending", friendReqHandler.ListPendingRequestsHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{requestID:[0-9]+}/accept", friendReqHandler.AcceptFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID:[0-9]+}/decline", friendReqHandler.DeclineFriendRequestHandler).Methods(http.MethodPost)

	apiRouter.HandleFunc("/groups", groupHandler.CreateGroupHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/mine", groupHandler.ListMyGroupsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/invite", groupHandler.InviteToGroupHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/leave", groupHandler.LeaveGroupHandler).Methods(http.MethodPost)

	apiRouter.HandleFunc("/posts", postHandler.CreatePostHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{postID:[0-9]+}/like", postHandler.LikePostHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{postID:[0-9]+}/comments", postHandler.CommentOnPostHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{postID:[0-9]+}/tags", postHandler.TagUserHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{postID:[0-9]+}/mentions", postHandler.MentionUserHandler).Methods(http.MethodPost)

	// public routes
	r.HandleFunc("/users/{userID:[0-9]+}", userHandler.GetUserProfileHandler).Methods(http.MethodGet)
	r.HandleFunc("/groups/{groupID:[0-9]+}", groupHandler.GetGroupHandler).Methods(http.MethodGet)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		gorillaHandlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		gorillaHandlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		gorillaHandlers.AllowCredentials(),
		gorillaHandlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	)(r)

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	httpServer := &http.Server{Addr: serverAddr, Handler: corsHandler}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("api server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("api server shutting down")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("api server shutdown failed")
	}
	logger.Info().Msg("api server stopped")
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
