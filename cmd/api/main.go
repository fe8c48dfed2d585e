package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/coursedesk/coursedesk-api/api/swagger"
	"github.com/coursedesk/coursedesk-api/internal/handler"
	"github.com/coursedesk/coursedesk-api/internal/middleware"
	"github.com/coursedesk/coursedesk-api/internal/repository"
	"github.com/coursedesk/coursedesk-api/internal/service"
	"github.com/coursedesk/coursedesk-api/pkg/cache"
	"github.com/coursedesk/coursedesk-api/pkg/config"
	"github.com/coursedesk/coursedesk-api/pkg/database"
	"github.com/coursedesk/coursedesk-api/pkg/logger"
	corsmiddleware "github.com/coursedesk/coursedesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/coursedesk/coursedesk-api/pkg/middleware/requestid"
)

// @title CourseDesk API
// @version 1.0.0
// @description Academic records service: courses, schedules, enrollments and grades
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		if cfg.Cache.Enabled {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		logr.Sugar().Warnw("redis unavailable, statistics caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	courseRepo := repository.NewCourseRepository(db, scheduleRepo)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.StatsTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	exportSvc := service.NewExportService()

	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, nil, logr)
	gradeSvc := service.NewGradeService(gradeRepo, courseRepo, studentRepo, enrollmentRepo, cacheSvc, metricsSvc, cfg.Cache.StatsTTL, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, courseRepo, courseRepo, gradeRepo, exportSvc, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handler.Handlers{
		Courses:     handler.NewCourseHandler(courseSvc),
		Schedules:   handler.NewScheduleHandler(scheduleSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc, gradeSvc),
		Students:    handler.NewStudentHandler(studentSvc, gradeSvc),
	}, handler.Guards{
		JWT:     middleware.JWT(tokenSvc),
		Teacher: middleware.TeacherGuard(teacherRepo, logr),
		Student: middleware.StudentGuard(studentRepo, logr),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
