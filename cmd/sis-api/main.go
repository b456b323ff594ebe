package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushq/sis-api/api/swagger"
	"github.com/campushq/sis-api/internal/handler"
	"github.com/campushq/sis-api/internal/middleware"
	"github.com/campushq/sis-api/internal/models"
	"github.com/campushq/sis-api/internal/repository"
	"github.com/campushq/sis-api/internal/service"
	"github.com/campushq/sis-api/pkg/cache"
	"github.com/campushq/sis-api/pkg/config"
	"github.com/campushq/sis-api/pkg/database"
	"github.com/campushq/sis-api/pkg/logger"
	corsmiddleware "github.com/campushq/sis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/sis-api/pkg/middleware/requestid"
)

// @title SIS API
// @version 1.0.0
// @description Enrollment and grading back end for the student information system
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)

	var notificationSvc *service.NotificationService
	if cfg.Notifications.Enabled {
		notificationSvc = service.NewNotificationService(cfg.Notifications.Workers, cfg.Notifications.BufferSize, logr)
		notificationSvc.Start(context.Background())
		defer notificationSvc.Stop()
	}

	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, cacheRepo, cfg.Cache.AcademicSummaryTTL, logr, metricsSvc)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sectionRepo, courseRepo, studentRepo, nil, logr, metricsSvc, notificationSvc)
	gradeSvc := service.NewGradeService(assessmentRepo, enrollmentRepo, studentSvc, notificationSvc, nil, logr, metricsSvc)

	courseHandler := handler.NewCourseHandler(courseSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		courses := api.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.GET("/:id", courseHandler.Get)
			courses.POST("", admin, middleware.Audit(logr, "create", "course"), courseHandler.Create)
			courses.PUT("/:id", admin, middleware.Audit(logr, "update", "course"), courseHandler.Update)
		}

		sections := api.Group("/sections")
		{
			sections.GET("", sectionHandler.List)
			sections.GET("/:id", sectionHandler.Get)
			sections.POST("", admin, middleware.Audit(logr, "create", "section"), sectionHandler.Create)
			sections.PUT("/:id/cancel", admin, middleware.Audit(logr, "cancel", "section"), sectionHandler.Cancel)
		}

		enrollments := api.Group("/enrollments")
		{
			enrollments.GET("", staff, enrollmentHandler.List)
			enrollments.GET("/:id", enrollmentHandler.Get)
			enrollments.POST("", middleware.Audit(logr, "enroll", "enrollment"), enrollmentHandler.Create)
			enrollments.PUT("/:id/drop", middleware.Audit(logr, "drop", "enrollment"), enrollmentHandler.Drop)

			enrollments.GET("/:id/assessments", gradeHandler.ListAssessments)
			enrollments.POST("/:id/assessments", staff, middleware.Audit(logr, "record", "assessment"), gradeHandler.RecordAssessment)
			enrollments.GET("/:id/grade", gradeHandler.Preview)
			enrollments.POST("/:id/grade/finalize", staff, middleware.Audit(logr, "finalize", "grade"), gradeHandler.Finalize)
		}

		api.PUT("/assessments/:id", staff, middleware.Audit(logr, "update", "assessment"), gradeHandler.UpdateAssessment)

		students := api.Group("/students")
		{
			students.GET("", staff, studentHandler.List)
			students.GET("/:id", middleware.RBAC("ADMIN", "INSTRUCTOR", "SELF"), studentHandler.Get)
			students.GET("/:id/academic-summary", middleware.RBAC("ADMIN", "INSTRUCTOR", "SELF"), studentHandler.AcademicSummary)
			students.POST("/:id/recompute", admin, middleware.Audit(logr, "recompute", "student"), studentHandler.Recompute)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
