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

	"github.com/yungbote/aria-backend/internal/clients/redis"
	"github.com/yungbote/aria-backend/internal/config"
	"github.com/yungbote/aria-backend/internal/db"
	"github.com/yungbote/aria-backend/internal/handlers"
	"github.com/yungbote/aria-backend/internal/middleware"
	"github.com/yungbote/aria-backend/internal/observability"
	"github.com/yungbote/aria-backend/internal/platform/envutil"
	"github.com/yungbote/aria-backend/internal/platform/localmedia"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/server"
	"github.com/yungbote/aria-backend/internal/services"
)

func main() {
	// Logger
	log, err := logger.New(envutil.Str("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: envutil.Str("OTEL_SERVICE_NAME", "aria-backend"),
		Environment: envutil.Str("DEPLOY_ENV", "development"),
		Version:     envutil.Str("SERVICE_VERSION", "dev"),
	})

	// Env
	jwtSecretKey := envutil.Str("JWT_SECRET_KEY", "defaultsecret")
	accessTTL := envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis (optional: revocation disabled without it)
	var revocations redis.RevocationList
	if rl, rErr := redis.NewRevocationList(log); rErr != nil {
		log.Warn("Redis init failed, token revocation disabled", "error", rErr)
	} else {
		revocations = rl
		defer revocations.Close()
	}

	// Assistant config
	assistantCfg, err := config.LoadAssistantConfig(envutil.Str("ASSISTANT_CONFIG_PATH", "./config/assistant.yaml"))
	if err != nil {
		log.Error("Could not load assistant config", "error", err)
		os.Exit(1)
	}

	// Media store
	mediaStore, err := localmedia.NewStore(log)
	if err != nil {
		log.Error("Could not init media store", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)

	// Services
	log.Info("Setting up services from main...")
	avatarService, err := services.NewAvatarService(log, mediaStore)
	if err != nil {
		log.Error("Could not init AvatarService", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, avatarService, revocations, jwtSecretKey, accessTTL)
	userService := services.NewUserService(thePG, log, userRepo, authService)
	conversationService := services.NewConversationService(thePG, log, conversationRepo, userService)
	assistantService := services.NewAssistantService(log, assistantCfg, nil, conversationService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	assistantHandler := handlers.NewAssistantHandler(assistantService, userService)
	healthHandler := handlers.NewHealthHandler(postgresService.Ping, revocations)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		ConversationHandler: conversationHandler,
		AssistantHandler:    assistantHandler,
		HealthHandler:       healthHandler,
		MediaRoot:           mediaStore.Root(),
	})

	port := envutil.Str("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown error", "error", err)
	}
	if otelShutdown != nil {
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown error", "error", err)
		}
	}
}
