package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unieval/course-review-api/api/swagger"
	"github.com/unieval/course-review-api/internal/handler"
	"github.com/unieval/course-review-api/internal/middleware"
	"github.com/unieval/course-review-api/internal/repository"
	"github.com/unieval/course-review-api/internal/service"
	"github.com/unieval/course-review-api/pkg/cache"
	"github.com/unieval/course-review-api/pkg/config"
	"github.com/unieval/course-review-api/pkg/database"
	"github.com/unieval/course-review-api/pkg/logger"
	corsmiddleware "github.com/unieval/course-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unieval/course-review-api/pkg/middleware/requestid"
	"github.com/unieval/course-review-api/pkg/snowflake"
)

// @title Course Review API
// @version 1.0.0
// @description Course review platform with anonymous per-offering reviews
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
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ids, err := snowflake.New(cfg.ID.WorkerID)
	if err != nil {
		logr.Sugar().Fatalw("failed to init id generator", "error", err)
	}

	// Repositories.
	reviewRepo := repository.NewReviewRepository(db, ids)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	userRepo := repository.NewUserRepository(db)
	encouragementRepo := repository.NewEncouragementRepository(db, ids)

	// Services.
	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.CourseStatsTTL, logr, cfg.Cache.Enabled)
	}

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	reviewSvc := service.NewReviewService(reviewRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, reviewRepo, cacheSvc, cfg.Cache.CourseStatsTTL, nil, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, nil, logr)
	catalogSvc := service.NewCatalogService(departmentRepo, semesterRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, logr)
	encouragementSvc := service.NewEncouragementService(encouragementRepo, cacheSvc, cfg.Cache.EncouragementTTL, nil, logr)
	exportSvc := service.NewExportService(reviewRepo, cfg.Exports.Enabled, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc, courseSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, exportSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	userHandler := handler.NewUserHandler(userSvc)
	encouragementHandler := handler.NewEncouragementHandler(encouragementSvc)
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
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(authSvc)
	adminOnly := middleware.AdminOnly()

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/verify/:token", authHandler.Verify)
		auth.PUT("/password", authRequired, authHandler.ChangePassword)
		auth.DELETE("/account", authRequired, authHandler.DeleteAccount)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", reviewHandler.List)
		reviews.POST("", authRequired, reviewHandler.Submit)
		reviews.GET("/check", authRequired, reviewHandler.Check)
		reviews.DELETE("/:id", authRequired, adminOnly, reviewHandler.Delete)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/search", courseHandler.Search)
		courses.GET("/:id", courseHandler.Detail)
		courses.POST("", authRequired, adminOnly, courseHandler.Create)
		courses.PUT("/:id", authRequired, adminOnly, courseHandler.Update)
		courses.DELETE("/:id", authRequired, adminOnly, courseHandler.Delete)
		courses.POST("/:id/instructors", authRequired, adminOnly, courseHandler.LinkInstructor)
		courses.GET("/:id/reviews/export", authRequired, adminOnly, courseHandler.ExportReviews)
	}

	instructors := api.Group("/instructors")
	{
		instructors.GET("", instructorHandler.List)
		instructors.GET("/:id", instructorHandler.Get)
		instructors.POST("", authRequired, adminOnly, instructorHandler.Create)
		instructors.PUT("/:id", authRequired, adminOnly, instructorHandler.Update)
		instructors.DELETE("/:id", authRequired, adminOnly, instructorHandler.Delete)
	}

	departments := api.Group("/departments")
	{
		departments.GET("", catalogHandler.ListDepartments)
		departments.POST("", authRequired, adminOnly, catalogHandler.CreateDepartment)
		departments.PUT("/:id", authRequired, adminOnly, catalogHandler.UpdateDepartment)
	}

	semesters := api.Group("/semesters")
	{
		semesters.GET("", catalogHandler.ListSemesters)
		semesters.POST("", authRequired, adminOnly, catalogHandler.CreateSemester)
		semesters.PUT("/:id", authRequired, adminOnly, catalogHandler.UpdateSemester)
	}

	users := api.Group("/users")
	{
		users.GET("/me", authRequired, userHandler.Me)
		users.GET("", authRequired, adminOnly, userHandler.List)
		users.PUT("/:id/lock", authRequired, adminOnly, userHandler.SetLocked)
		users.PUT("/:id/role", authRequired, adminOnly, userHandler.SetRole)
	}

	encouragements := api.Group("/encouragements")
	{
		encouragements.GET("/random", encouragementHandler.Random)
		encouragements.GET("", authRequired, adminOnly, encouragementHandler.List)
		encouragements.POST("", authRequired, adminOnly, encouragementHandler.Create)
		encouragements.PUT("/:id", authRequired, adminOnly, encouragementHandler.Update)
		encouragements.DELETE("/:id", authRequired, adminOnly, encouragementHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "worker_id", cfg.ID.WorkerID)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
