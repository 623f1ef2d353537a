package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/aria-backend/internal/handlers"
	"github.com/yungbote/aria-backend/internal/middleware"
	"github.com/yungbote/aria-backend/internal/platform/envutil"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	UserHandler         *handlers.UserHandler
	ConversationHandler *handlers.ConversationHandler
	AssistantHandler    *handlers.AssistantHandler
	HealthHandler       *handlers.HealthHandler
	MediaRoot           string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(envutil.Str("OTEL_SERVICE_NAME", "aria-backend")))

	origins := strings.Split(envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5174"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/health", cfg.HealthHandler.HealthCheck)
	router.POST("/user/register", cfg.AuthHandler.Register)
	router.POST("/user/login", cfg.AuthHandler.Login)
	if cfg.MediaRoot != "" {
		router.Static("/media", cfg.MediaRoot)
	}

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	user := protected.Group("/user")
	{
		user.GET("/profile", cfg.UserHandler.GetProfile)
		user.PUT("/profile", cfg.UserHandler.UpdateProfile)
		user.PUT("/preferences", cfg.UserHandler.UpdatePreferences)
		user.GET("/stats", cfg.UserHandler.GetStats)
		user.PUT("/password", cfg.UserHandler.ChangePassword)
		user.DELETE("/account", cfg.UserHandler.DeactivateAccount)
	}

	conversation := protected.Group("/conversation")
	{
		conversation.GET("", cfg.ConversationHandler.List)
		conversation.POST("", cfg.ConversationHandler.Create)
		conversation.GET("/search/:query", cfg.ConversationHandler.Search)
		conversation.GET("/:id", cfg.ConversationHandler.Get)
		conversation.PUT("/:id", cfg.ConversationHandler.Update)
		conversation.DELETE("/:id", cfg.ConversationHandler.Delete)
		conversation.PUT("/:id/archive", cfg.ConversationHandler.Archive)
		conversation.PUT("/:id/restore", cfg.ConversationHandler.Restore)
		conversation.PUT("/:id/favorite", cfg.ConversationHandler.ToggleFavorite)
		conversation.GET("/:id/stats", cfg.ConversationHandler.Stats)
		conversation.GET("/:id/export", cfg.ConversationHandler.Export)
	}

	ai := protected.Group("/ai")
	{
		ai.POST("/process-text", cfg.AssistantHandler.ProcessText)
		ai.POST("/process-voice", cfg.AssistantHandler.ProcessVoice)
		ai.GET("/status", cfg.AssistantHandler.Status)
		ai.PUT("/preferences", cfg.AssistantHandler.UpdatePreferences)
	}

	return router
}
