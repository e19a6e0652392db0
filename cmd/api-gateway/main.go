package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mentoria-app/mentoria-api/api/swagger"
	"github.com/mentoria-app/mentoria-api/internal/handler"
	"github.com/mentoria-app/mentoria-api/internal/middleware"
	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/recordstore"
	"github.com/mentoria-app/mentoria-api/internal/repository"
	"github.com/mentoria-app/mentoria-api/internal/service"
	"github.com/mentoria-app/mentoria-api/pkg/cache"
	"github.com/mentoria-app/mentoria-api/pkg/config"
	"github.com/mentoria-app/mentoria-api/pkg/export"
	"github.com/mentoria-app/mentoria-api/pkg/logger"
	corsmiddleware "github.com/mentoria-app/mentoria-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mentoria-app/mentoria-api/pkg/middleware/requestid"
	"github.com/mentoria-app/mentoria-api/pkg/phone"
)

// @title Mentoria API
// @version 0.1.0
// @description Enrollment and identity resolution service for the mentoria platform
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()

	store := recordstore.New(recordstore.Config{
		BaseURL:  cfg.RecordStore.BaseURL,
		Token:    cfg.RecordStore.Token,
		Timeout:  cfg.RecordStore.Timeout,
		Observer: metricsSvc.ObserveStoreCall,
	}, logr)

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Resolver.CacheTTL, logr, true)
	}

	adminRepo := repository.NewAdminRepository(store)
	mentorRepo := repository.NewMentorRepository(store)
	studentRepo := repository.NewStudentRepository(store)
	accountRepo := repository.NewAccountRepository(store)
	schoolRepo := repository.NewSchoolRepository(store)
	classRepo := repository.NewClassRepository(store)
	enrollmentRepo := repository.NewEnrollmentRepository(store)

	normalizer := phone.NewNormalizer(cfg.Phone.CountryCode)

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, logr)
	identitySvc := service.NewIdentityService(normalizer, adminRepo, mentorRepo, studentRepo, accountRepo, cacheSvc, cfg.Resolver.CacheTTL, logr)
	rosterSvc := service.NewRosterService(classRepo, enrollmentRepo, cfg.Enrollment.MaxSeats, logr)
	exchangeSvc := service.NewExchangeService(classRepo, enrollmentRepo, cfg.Enrollment.MaxSeats, nil, logr)
	importSvc := service.NewImportService(schoolRepo, classRepo, studentRepo, cfg.Import, metricsSvc, logr)

	identityHandler := handler.NewIdentityHandler(identitySvc, authSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc, export.NewCSVExporter(), export.NewPDFExporter())
	exchangeHandler := handler.NewExchangeHandler(exchangeSvc)
	importHandler := handler.NewImportHandler(importSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/identity/resolve", identityHandler.Resolve)
		api.POST("/identity/link", middleware.JWT(authSvc), identityHandler.Link)

		classes := api.Group("/classes", middleware.JWT(authSvc))
		{
			classes.GET("/:id/roster", middleware.RequireRoles(models.RoleAdmin, models.RoleMentor), rosterHandler.Roster)
			classes.GET("/overflow-report", middleware.RequireRoles(models.RoleAdmin), rosterHandler.OverflowReport)
		}

		api.POST("/enrollments/exchange",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleAdmin, models.RoleStudent),
			exchangeHandler.Exchange)

		api.POST("/imports/roster",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleAdmin),
			importHandler.Import)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
