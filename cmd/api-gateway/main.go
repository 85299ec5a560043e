package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/camp-registry-api/api/swagger"
	"github.com/noah-isme/camp-registry-api/internal/classify"
	"github.com/noah-isme/camp-registry-api/internal/feed"
	"github.com/noah-isme/camp-registry-api/internal/fieldmatch"
	"github.com/noah-isme/camp-registry-api/internal/handler"
	"github.com/noah-isme/camp-registry-api/internal/middleware"
	"github.com/noah-isme/camp-registry-api/internal/models"
	"github.com/noah-isme/camp-registry-api/internal/repository"
	"github.com/noah-isme/camp-registry-api/internal/service"
	"github.com/noah-isme/camp-registry-api/pkg/cache"
	"github.com/noah-isme/camp-registry-api/pkg/config"
	"github.com/noah-isme/camp-registry-api/pkg/database"
	"github.com/noah-isme/camp-registry-api/pkg/jobs"
	"github.com/noah-isme/camp-registry-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/camp-registry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/camp-registry-api/pkg/middleware/requestid"
)

// @title Camp Registry API
// @version 1.0.0
// @description Reconciliation and validation engine for camp registration feeds
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, classification cache disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	campRepo := repository.NewCampRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Column matcher, extended with configured locale synonyms.
	matcher := fieldmatch.New(nil)
	matcher.Extend(fieldmatch.RoleChildName, cfg.Matching.ChildKeywords...)
	matcher.Extend(fieldmatch.RoleParentName, cfg.Matching.ParentKeywords...)
	matcher.Extend(fieldmatch.RoleParentEmail, cfg.Matching.EmailKeywords...)
	matcher.Extend(fieldmatch.RolePhone, cfg.Matching.PhoneKeywords...)
	classifier := classify.New(matcher, cfg.Matching.RequiredFields, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	source := feed.NewSheetsSource(cfg.Feed.BaseURL, cfg.Feed.Timeout, logr)
	syncSvc := service.NewSyncService(source, registrationRepo, metricsSvc, logr)
	registrationSvc := service.NewRegistrationService(campRepo, registrationRepo, syncSvc, classifier, cacheSvc, nil, logr)
	campSvc := service.NewCampService(campRepo, cacheSvc, nil, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	exportSvc := service.NewExportService(campSvc, registrationSvc, nil, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	campHandler := handler.NewCampHandler(campSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("", middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/camps", campHandler.List)
			authed.GET("/camps/:campID", campHandler.Get)
			authed.POST("/camps", middleware.RequireRole(models.RoleAdmin), campHandler.Create)
			authed.DELETE("/camps/:campID", middleware.RequireRole(models.RoleAdmin), campHandler.Delete)

			authed.GET("/camps/:campID/registrations", registrationHandler.List)
			authed.POST("/camps/:campID/registrations", registrationHandler.Add)
			authed.PUT("/camps/:campID/registrations", registrationHandler.Modify)
			authed.DELETE("/camps/:campID/registrations/:id", registrationHandler.Delete)
			authed.POST("/camps/:campID/registrations/acceptance", registrationHandler.UpdateAcceptance)
			authed.GET("/camps/:campID/registrations/classification", registrationHandler.Classification)
			authed.GET("/camps/:campID/registrations/export", exportHandler.Download)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background auto-sync: periodically re-reads every camp's feed so
	// histories stay fresh without an operator opening the list view.
	var syncQueue *jobs.Queue
	if cfg.Sync.AutoEnabled {
		syncQueue = jobs.NewQueue("feed-sync", func(jobCtx context.Context, job jobs.Job) error {
			campID, ok := job.Payload.(string)
			if !ok {
				return fmt.Errorf("unexpected payload %T", job.Payload)
			}
			_, err := registrationSvc.List(jobCtx, campID)
			return err
		}, jobs.QueueConfig{
			Workers: cfg.Sync.Workers,
			Logger:  logr,
		})
		syncQueue.Start(ctx)
		defer syncQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Sync.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					camps, _, err := campRepo.List(ctx, models.CampFilter{PageSize: 100})
					if err != nil {
						logr.Sugar().Warnw("auto-sync camp listing failed", "error", err)
						continue
					}
					for _, camp := range camps {
						job := jobs.Job{ID: camp.ID, Type: "sync", Payload: camp.ID}
						if err := syncQueue.Enqueue(job); err != nil {
							logr.Sugar().Warnw("auto-sync enqueue failed", "camp", camp.Slug, "error", err)
						}
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
