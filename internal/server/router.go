package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/skillify/skillify-backend/internal/handlers"
	"github.com/skillify/skillify-backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins  string
	AuthMiddleware  *middleware.AuthMiddleware
	AuthHandler     *handlers.AuthHandler
	CourseHandler   *handlers.CourseHandler
	LectureHandler  *handlers.LectureHandler
	ProgressHandler *handlers.ProgressHandler
	PurchaseHandler *handlers.PurchaseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := []string{"http://localhost:5173"}
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")

	// Public
	api.POST("/user/register", cfg.AuthHandler.Register)
	api.POST("/user/login", cfg.AuthHandler.Login)
	api.GET("/course/published", cfg.CourseHandler.SearchPublished)
	// Provider callback; authenticated by signature, not by session.
	api.POST("/purchase/webhook", cfg.PurchaseHandler.Webhook)

	// Protected
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.GET("/user/profile", cfg.AuthHandler.GetProfile)

	protected.GET("/course/:courseId", cfg.CourseHandler.GetCourseByID)
	protected.GET("/course/:courseId/lecture", cfg.LectureHandler.GetCourseLectures)
	protected.GET("/course/lecture/:lectureId", cfg.LectureHandler.GetLectureByID)

	instructor := protected.Group("/")
	instructor.Use(cfg.AuthMiddleware.RequireInstructor())
	instructor.POST("/course", cfg.CourseHandler.CreateCourse)
	instructor.GET("/course", cfg.CourseHandler.GetCreatorCourses)
	instructor.PUT("/course/:courseId", cfg.CourseHandler.EditCourse)
	instructor.GET("/course/:courseId/enrollment", cfg.CourseHandler.GetCourseEnrollments)
	instructor.POST("/course/:courseId/lecture", cfg.LectureHandler.CreateLecture)
	instructor.POST("/course/lecture/:lectureId", cfg.LectureHandler.EditLecture)
	instructor.DELETE("/course/lecture/:lectureId", cfg.LectureHandler.RemoveLecture)

	protected.GET("/progress/:courseId", cfg.ProgressHandler.GetCourseProgress)
	protected.POST("/progress/:courseId/lecture/:lectureId/view", cfg.ProgressHandler.RecordLectureViewed)
	protected.POST("/progress/:courseId/complete", cfg.ProgressHandler.MarkCourseCompleted)
	protected.POST("/progress/:courseId/incomplete", cfg.ProgressHandler.MarkCourseIncomplete)

	protected.POST("/purchase/checkout/create-checkout-session", cfg.PurchaseHandler.CreateCheckoutSession)
	protected.GET("/purchase/course/:courseId/detail-with-status", cfg.PurchaseHandler.GetCourseDetailWithStatus)
	protected.GET("/purchase", cfg.PurchaseHandler.GetPurchasedCourses)

	return router
}
