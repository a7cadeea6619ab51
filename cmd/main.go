package main

import (
	"context"
	"fmt"
	"os"

	"github.com/glowplan/selfcare-backend/internal/clients/fcm"
	"github.com/glowplan/selfcare-backend/internal/clients/redisstore"
	"github.com/glowplan/selfcare-backend/internal/clients/sendgrid"
	"github.com/glowplan/selfcare-backend/internal/db"
	"github.com/glowplan/selfcare-backend/internal/handlers"
	"github.com/glowplan/selfcare-backend/internal/jobs"
	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/middleware"
	"github.com/glowplan/selfcare-backend/internal/repos"
	"github.com/glowplan/selfcare-backend/internal/server"
	"github.com/glowplan/selfcare-backend/internal/services"
	"github.com/glowplan/selfcare-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	rdb, err := redisstore.NewClient(log)
	if err != nil {
		log.Error("Redis init failed", "error", err)
		os.Exit(1)
	}
	markerStore := redisstore.NewMarkerStore(log, rdb)
	updateBus := redisstore.NewUpdateBus(log, rdb)

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	activityRepo := repos.NewActivityRepo(thePG, log)
	taskUpdateRepo := repos.NewTaskUpdateRepo(thePG, log)
	deviceTokenRepo := repos.NewDeviceTokenRepo(thePG, log)
	achievementProgressRepo := repos.NewAchievementProgressRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	emailClient, err := sendgrid.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init SendGrid client", "error", err)
		os.Exit(1)
	}
	pushClient, err := fcm.NewFromEnv(ctx, log)
	if err != nil {
		log.Error("Could not init FCM client", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	taskService := services.NewTaskService(log, taskUpdateRepo, activityRepo, updateBus)
	userService := services.NewUserService(log, userRepo, deviceTokenRepo)
	achievementService := services.NewAchievementService(log, taskUpdateRepo, achievementProgressRepo)
	reminderService := services.NewReminderService(
		log,
		services.ReminderConfig{
			WindowMinutes: utils.GetEnvAsInt("SWEEP_WINDOW_MINUTES", 6, log),
			AppURL:        utils.GetEnv("APP_URL", "https://web.glowplan.app/dashboard", log),
		},
		userRepo,
		activityRepo,
		taskUpdateRepo,
		deviceTokenRepo,
		markerStore,
		emailClient,
		pushClient,
	)

	// Update-bus consumer and reminder sweeper
	if err := achievementService.StartConsumer(ctx, updateBus); err != nil {
		log.Error("Could not start achievement consumer", "error", err)
		os.Exit(1)
	}
	if utils.GetEnvAsBool("SWEEP_ENABLED", true, log) {
		sweeper := jobs.NewSweeper(log, reminderService)
		sweeper.Start(ctx)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	taskHandler := handlers.NewTaskHandler(taskService)
	achievementHandler := handlers.NewAchievementHandler(achievementService)
	notificationHandler := handlers.NewNotificationHandler(userService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware, err := middleware.NewAuthMiddleware(log)
	if err != nil {
		log.Error("Could not init auth middleware", "error", err)
		os.Exit(1)
	}

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		AuthMiddleware:      authMiddleware,
		TaskHandler:         taskHandler,
		AchievementHandler:  achievementHandler,
		NotificationHandler: notificationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
