package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/glowplan/selfcare-backend/internal/handlers"
	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/middleware"
	"github.com/glowplan/selfcare-backend/internal/utils"
)

type RouterConfig struct {
	Log                 *logger.Logger
	AuthMiddleware      *middleware.AuthMiddleware
	TaskHandler         *handlers.TaskHandler
	AchievementHandler  *handlers.AchievementHandler
	NotificationHandler *handlers.NotificationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5174", cfg.Log)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(origins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Tasks
	api.POST("/updates", cfg.TaskHandler.RecordUpdates)
	api.GET("/updates", cfg.TaskHandler.UpdateHistory)
	api.PUT("/activities", cfg.TaskHandler.SaveActivities)
	api.GET("/tasks/day", cfg.TaskHandler.DayView)
	// Achievements
	api.POST("/achievements/recompute", cfg.AchievementHandler.Recompute)
	api.POST("/achievements/seen", cfg.AchievementHandler.MarkSeen)
	// Notifications
	api.GET("/notifications/prefs", cfg.NotificationHandler.GetPrefs)
	api.PUT("/notifications/prefs", cfg.NotificationHandler.SavePrefs)
	api.POST("/notifications/tokens", cfg.NotificationHandler.RegisterToken)
	api.DELETE("/notifications/tokens", cfg.NotificationHandler.RemoveToken)

	return router
}
