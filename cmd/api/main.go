package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, rate limiting and gpa cache degraded", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, studentRepo, validate, logr, service.AuthConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessExpiry:  cfg.Auth.AccessExpiration,
		RefreshExpiry: cfg.Auth.RefreshExpiration,
		Issuer:        cfg.Auth.Issuer,
	})
	classSvc := service.NewClassService(classRepo, studentRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	scoreSvc := service.NewScoreService(scoreRepo, studentRepo, subjectRepo, cacheRepo, metricsSvc, cfg.Cache.GPATTL, validate, logr)

	cookies := handler.CookieSettings{
		AccessName:  cfg.Auth.AccessCookieName,
		RefreshName: cfg.Auth.RefreshCookieName,
		Secure:      cfg.Env == config.EnvProduction,
	}
	authHandler := handler.NewAuthHandler(authSvc, cookies)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	authn := middleware.Auth(authSvc, cfg.Auth.AccessCookieName)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authn, adminOnly, authHandler.Register)
		auth.POST("/login", middleware.LoginRateLimit(redisClient, cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow, logr), authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authn, authHandler.Logout)
		auth.GET("/me", authn, authHandler.Me)
	}

	classes := api.Group("/classes", authn)
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.GET("/:id/students", staff, classHandler.ListStudents)
		classes.POST("", adminOnly, classHandler.Create)
		classes.PUT("/:id", adminOnly, classHandler.Update)
		classes.DELETE("/:id", adminOnly, classHandler.Delete)
	}

	subjects := api.Group("/subjects", authn)
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", adminOnly, subjectHandler.Create)
		subjects.PUT("/:id", adminOnly, subjectHandler.Update)
		subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)
	}

	students := api.Group("/students", authn)
	{
		students.GET("/me/profile", studentHandler.MyProfile)
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", staff, studentHandler.Get)
		students.POST("", adminOnly, studentHandler.Create)
		students.PUT("/:id", adminOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Delete)
	}

	scores := api.Group("/scores", authn)
	{
		scores.GET("", staff, scoreHandler.List)
		scores.GET("/student/:studentId/term/:term", middleware.RequireSelfStudent("studentId"), scoreHandler.TermSheet)
		scores.GET("/student/:studentId/gpa", middleware.RequireSelfStudent("studentId"), scoreHandler.GPA)
		scores.GET("/:id", staff, scoreHandler.Get)
		scores.POST("", staff, scoreHandler.Create)
		scores.PUT("/:id", staff, scoreHandler.Update)
		scores.DELETE("/:id", adminOnly, scoreHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
