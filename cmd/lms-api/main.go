package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/otero-ediciones/lms-api/api/swagger"
	"github.com/otero-ediciones/lms-api/internal/handler"
	"github.com/otero-ediciones/lms-api/internal/middleware"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	"github.com/otero-ediciones/lms-api/internal/repository"
	"github.com/otero-ediciones/lms-api/internal/service"
	"github.com/otero-ediciones/lms-api/pkg/cache"
	"github.com/otero-ediciones/lms-api/pkg/config"
	"github.com/otero-ediciones/lms-api/pkg/database"
	"github.com/otero-ediciones/lms-api/pkg/logger"
	corsmiddleware "github.com/otero-ediciones/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/otero-ediciones/lms-api/pkg/middleware/requestid"
)

// @title LMS API
// @version 1.0.0
// @description Learning management backend
// @BasePath /api
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	engine := policy.NewEngine(policy.Config{TeacherLessonEdit: cfg.Policy.TeacherLessonEdit})
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	var userSvc *service.UserService
	if cacheRepo != nil {
		userSvc = service.NewUserService(userRepo, cacheRepo, engine, nil, logr, cfg.Cache.PublicTeacherTTL)
	} else {
		userSvc = service.NewUserService(userRepo, nil, engine, nil, logr, cfg.Cache.PublicTeacherTTL)
	}

	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, userRepo, engine, nil, logr)
	lessonSvc := service.NewLessonService(lessonRepo, courseRepo, enrollmentRepo, engine, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, engine, nil, logr)
	questionSvc := service.NewQuestionService(questionRepo, subjectRepo, engine, nil, logr)
	dashboardSvc := service.NewDashboardService(lessonRepo, engine, logr)
	exportSvc := service.NewExportService(courseRepo, enrollmentRepo, lessonRepo, engine, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	questionHandler := handler.NewQuestionHandler(questionSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	publicHandler := handler.NewPublicHandler(userSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/public/teachers", publicHandler.Teachers)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/users/me", userHandler.Me)
		authed.PUT("/users/me", userHandler.UpdateMe)

		authed.GET("/courses", courseHandler.List)
		authed.GET("/courses/:id", courseHandler.Get)
		authed.GET("/lessons", lessonHandler.List)
		authed.GET("/lessons/:id", lessonHandler.Get)
		authed.GET("/subjects", subjectHandler.List)
		authed.GET("/subjects/:id", subjectHandler.Get)
		authed.GET("/test-questions", questionHandler.List)
		authed.GET("/test-questions/:id", questionHandler.Get)
	}

	students := api.Group("")
	students.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		students.GET("/dashboard/upcoming-lessons", dashboardHandler.UpcomingLessons)
	}

	// Lesson writes carry their own policy check so the teacher toggle
	// can allow owning teachers through.
	lessonEditors := api.Group("")
	lessonEditors.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	lessonEditors.Use(middleware.Audit(userRepo, models.AuditActionLessonWrite, "lesson"))
	{
		lessonEditors.POST("/lessons", lessonHandler.Create)
		lessonEditors.PUT("/lessons/:id", lessonHandler.Update)
		lessonEditors.DELETE("/lessons/:id", lessonHandler.Delete)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.GET("/users/:id", userHandler.Get)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)

		courses := admin.Group("")
		courses.Use(middleware.Audit(userRepo, models.AuditActionCourseWrite, "course"))
		{
			courses.POST("/courses", courseHandler.Create)
			courses.PUT("/courses/:id", courseHandler.Update)
			courses.DELETE("/courses/:id", courseHandler.Delete)
		}

		admin.POST("/subjects", subjectHandler.Create)
		admin.PUT("/subjects/:id", subjectHandler.Update)
		admin.DELETE("/subjects/:id", subjectHandler.Delete)

		admin.POST("/test-questions", questionHandler.Create)
		admin.PUT("/test-questions/:id", questionHandler.Update)
		admin.DELETE("/test-questions/:id", questionHandler.Delete)

		admin.GET("/enrollments", enrollmentHandler.List)
		admin.POST("/enrollments", enrollmentHandler.Create)
		admin.DELETE("/enrollments/:id", enrollmentHandler.Delete)

		if cfg.Exports.Enabled {
			admin.GET("/exports/courses/:id/roster.csv", exportHandler.Roster)
			admin.GET("/exports/courses/:id/schedule.pdf", exportHandler.Schedule)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
