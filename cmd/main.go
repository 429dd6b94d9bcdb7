package main

import (
	"context"
	"fmt"
	"os"
	"time"

	redisclient "github.com/skillify/skillify-backend/internal/clients/redis"
	stripeclient "github.com/skillify/skillify-backend/internal/clients/stripe"
	"github.com/skillify/skillify-backend/internal/db"
	"github.com/skillify/skillify-backend/internal/handlers"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/middleware"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/server"
	"github.com/skillify/skillify-backend/internal/services"
	"github.com/skillify/skillify-backend/internal/utils"
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

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	lectureRepo := repos.NewLectureRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	purchaseRepo := repos.NewPurchaseRepo(thePG, log)
	progressRepo := repos.NewCourseProgressRepo(thePG, log)

	// Clients
	gateway, err := stripeclient.NewGateway(log)
	if err != nil {
		log.Fatal("Stripe gateway init failed", "error", err)
	}
	var enrollmentBus services.EnrollmentBus
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err := redisclient.NewEnrollmentBus(log)
		if err != nil {
			log.Warn("Redis enrollment bus init failed, events disabled", "error", err)
		} else {
			defer bus.Close()
			enrollmentBus = bus
			if err := bus.StartForwarder(context.Background(), func(e services.EnrollmentEvent) {
				log.Info("Enrollment recorded", "purchase_id", e.PurchaseID, "user_id", e.UserID, "course_id", e.CourseID)
			}); err != nil {
				log.Warn("Enrollment forwarder start failed", "error", err)
			}
		}
	}

	// Services
	log.Info("Setting up services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, enrollmentRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	courseService := services.NewCourseService(thePG, log, courseRepo, enrollmentRepo)
	lectureService := services.NewLectureService(thePG, log, lectureRepo, courseRepo)
	progressService := services.NewProgressService(thePG, log, progressRepo, courseRepo, lectureRepo)
	purchaseService := services.NewPurchaseService(thePG, log, purchaseRepo, courseRepo, lectureRepo, enrollmentRepo, gateway, enrollmentBus)

	// Handlers
	authHandler := handlers.NewAuthHandler(log, authService)
	courseHandler := handlers.NewCourseHandler(log, courseService)
	lectureHandler := handlers.NewLectureHandler(log, lectureService)
	progressHandler := handlers.NewProgressHandler(log, progressService)
	purchaseHandler := handlers.NewPurchaseHandler(log, purchaseService, gateway)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins:  allowedOrigins,
		AuthMiddleware:  authMiddleware,
		AuthHandler:     authHandler,
		CourseHandler:   courseHandler,
		LectureHandler:  lectureHandler,
		ProgressHandler: progressHandler,
		PurchaseHandler: purchaseHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
