// File: studybuddy/main.go
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"studybuddy/config"
	"studybuddy/cron"
	"studybuddy/database"
	"studybuddy/database/repository"
	"studybuddy/handlers"
	"studybuddy/middleware"
	"studybuddy/realtime"
	"studybuddy/routes"
	"studybuddy/services/chat"
	"studybuddy/services/matching"
	"studybuddy/services/notification"
	"studybuddy/services/scheduling"
	"studybuddy/services/storage"
	"studybuddy/services/tasks"
	"studybuddy/services/user"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadConfig()
	cfg := &config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitRedis()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	utils.StartHealthMonitor(ctx, utils.RedisClients(), database.MongoClient, 30*time.Second)

	avatarStorage, err := storage.NewStorageFromConfig(cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize avatar storage: %v", err)
	}

	// repositories.
	userRepo := repository.NewMongoUserRepository()
	matchRepo := repository.NewMongoMatchRepository()
	schedulingRepo := repository.NewMongoSchedulingRepository()
	chatRepo := repository.NewMongoChatRepository()

	// push notifications.
	var sender notification.MessageSender
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := notification.NewFCMClient(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Warn("FCM disabled", zap.Error(err))
		} else {
			sender = fcm
		}
	}
	notifier := notification.NewDefaultNotificationService(userRepo, sender)

	// reminder queue.
	queueOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
	queue := asynq.NewClient(queueOpt)
	defer queue.Close()
	worker, err := cron.StartReminderWorker(ctx, queueOpt, &cron.ReminderHandler{
		Sessions: schedulingRepo,
		Notifier: notifier,
		Logger:   logger.Named("reminders"),
	})
	if err != nil {
		logger.Error("main: reminders disabled", zap.Error(err))
	}

	// services.
	userService := &user.DefaultUserService{
		Repo:             userRepo,
		Sessions:         utils.NewRedisSessionStore(utils.GetAuthCacheClient()),
		Storage:          avatarStorage,
		Avatars:          user.NewRedisAvatarCache(utils.GetCacheClient(), time.Hour),
		Logger:           logger.Named("users"),
		JWTSecret:        []byte(cfg.JWTSecret),
		SessionTTL:       cfg.SessionTTL,
		DefaultAvatarURL: cfg.DefaultAvatarURL,
		HashCost:         bcrypt.DefaultCost,
	}
	matchingService := matching.NewDefaultMatchingService(userRepo, matchRepo, notifier, logger.Named("matching"))
	schedulingService := &scheduling.DefaultSchedulingService{
		Repo:            schedulingRepo,
		Users:           userRepo,
		Notifier:        notifier,
		Reminders:       tasks.NewAsynqReminderScheduler(queue, cfg.ReminderLead),
		Logger:          logger.Named("scheduling"),
		Strategy:        scheduling.StrategyFor(cfg.SuggestionStrategy),
		SuggestionLimit: cfg.SuggestionLimit,
		DefaultDuration: cfg.DefaultSessionMinutes,
	}
	chatService := &chat.DefaultChatService{Repo: chatRepo, Users: userRepo, Logger: logger.Named("chat")}

	handlerBundle := &handlers.HandlerBundle{
		Sessions:   userService,
		Users:      handlers.NewUserHandler(userService, cfg.SessionTTL, config.IsProduction()),
		Matches:    handlers.NewMatchHandler(matchingService),
		Scheduling: handlers.NewSchedulingHandler(schedulingService),
		Chats:      handlers.NewChatHandler(chatService),
		Sockets: &handlers.SocketHandler{
			Chat:     realtime.NewChatSocket(chatService, logger.Named("ws")),
			Meetup:   realtime.NewMeetupSocket(chatService, logger.Named("ws")),
			Chats:    chatService,
			Upgrader: realtime.NewUpgrader(cfg.CORSOrigins),
		},
		Health: handlers.NewHealthHandler(cfg.Env),
	}

	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	routes.RegisterRoutes(router, handlerBundle, routes.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RequestsPerMin:     cfg.MaxRequestsPerMin,
		AuthRequestsPerMin: cfg.AuthRequestsPerMin,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	for _, c := range utils.RedisClients() {
		_ = c.Close()
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}
