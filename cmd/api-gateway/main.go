package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fh-academy-api/api/swagger"
	"github.com/noah-isme/fh-academy-api/internal/handler"
	"github.com/noah-isme/fh-academy-api/internal/repository"
	"github.com/noah-isme/fh-academy-api/internal/router"
	"github.com/noah-isme/fh-academy-api/internal/service"
	"github.com/noah-isme/fh-academy-api/pkg/cache"
	"github.com/noah-isme/fh-academy-api/pkg/config"
	"github.com/noah-isme/fh-academy-api/pkg/database"
	"github.com/noah-isme/fh-academy-api/pkg/jobs"
	"github.com/noah-isme/fh-academy-api/pkg/logger"
	"github.com/noah-isme/fh-academy-api/pkg/mailer"
)

// @title Family History Academy API
// @version 1.0.0
// @description Courses, badges and the admin authoring workflow
// @BasePath /
// @schemes http https

const shutdownTimeout = 15 * time.Second

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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Drafts.Store == config.DraftStoreRedis {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled)

	var draftStore service.DraftStore = repository.NewMemoryDraftRepository()
	if cfg.Drafts.Store == config.DraftStoreRedis {
		draftStore = repository.NewRedisDraftRepository(redisClient)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "fh-academy-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	catalogSvc := service.NewCatalogService(courseRepo, userRepo, cacheSvc, cfg.Cache.CatalogTTL, logr)
	badgeSvc := service.NewBadgeService(badgeRepo, progressRepo, userRepo, mailer.New(cfg.Mail, logr), metricsSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	badgeQueue := jobs.NewQueue("badge-evaluation", badgeSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Badges.Workers,
		MaxRetries: cfg.Badges.Retries,
		Logger:     logr,
	})
	badgeSvc.UseQueue(badgeQueue)
	badgeQueue.Start(ctx)

	progressSvc := service.NewProgressService(progressRepo, courseRepo, badgeRepo, badgeQueue, logr)
	draftSvc := service.NewDraftService(draftStore, catalogSvc, badgeSvc, validate, metricsSvc, logr, cfg.Drafts.TTL)
	dashboardSvc := service.NewDashboardService(userRepo, cacheSvc, metricsSvc, 0, logr)
	exportSvc := service.NewExportService(userRepo, logr)

	scheduler := jobs.NewScheduler(logr)
	if cfg.Drafts.PurgeSchedule != "" {
		if err := scheduler.Register("draft-purge", cfg.Drafts.PurgeSchedule, draftSvc.PurgeExpired); err != nil {
			logr.Fatal("failed to schedule draft purge", zap.Error(err))
		}
	}
	scheduler.Start()

	deps := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine := router.New(router.Deps{
		Config:  cfg,
		Logger:  logr,
		Tokens:  authSvc,
		Audit:   userRepo,
		Metrics: metricsSvc,
	}, router.Handlers{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.JWT.CookieName,
			Secure: cfg.Env == config.EnvProduction,
			TTL:    authSvc.TokenTTL(),
		}),
		Courses:     handler.NewCourseHandler(catalogSvc),
		Progress:    handler.NewProgressHandler(progressSvc),
		Badges:      handler.NewBadgeHandler(badgeSvc),
		Users:       handler.NewUserHandler(userSvc, exportSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		CourseDraft: handler.NewCourseDraftHandler(draftSvc),
		BadgeDraft:  handler.NewBadgeDraftHandler(draftSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc, deps),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "draft_store", cfg.Drafts.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		logr.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("could not stop server gracefully", zap.Error(err))
		_ = server.Close()
	}
	scheduler.Stop(shutdownCtx)
	badgeQueue.Stop()
	logr.Info("server stopped")
}
