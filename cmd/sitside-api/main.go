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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sitside-api/api/swagger"
	"github.com/noah-isme/sitside-api/internal/handler"
	"github.com/noah-isme/sitside-api/internal/repository"
	"github.com/noah-isme/sitside-api/internal/router"
	"github.com/noah-isme/sitside-api/internal/service"
	"github.com/noah-isme/sitside-api/migrations"
	"github.com/noah-isme/sitside-api/pkg/cache"
	"github.com/noah-isme/sitside-api/pkg/config"
	"github.com/noah-isme/sitside-api/pkg/database"
	"github.com/noah-isme/sitside-api/pkg/logger"
	"github.com/noah-isme/sitside-api/pkg/observability"
)

// @title SitSide API
// @version 1.0.0
// @description Marketplace connecting parents with vetted student babysitters
// @BasePath /api
// @schemes http https
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

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(db, migrations.FS); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheStore service.CacheRepository
	if cacheRepo != nil {
		cacheStore = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, cfg.Cache.DashboardTTL, logr, cacheRepo != nil)

	users := repository.NewUserRepository(db)
	bookings := repository.NewBookingRepository(db)
	bookingCfg := service.BookingConfig{MaxWriteRetries: cfg.Bookings.MaxWriteRetries}

	authSvc := service.NewAuthService(users, cacheSvc, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
		Cost:   cfg.JWT.BcryptCost,
		Admin: service.AdminBootstrap{
			Email:     cfg.Admin.Email,
			Password:  cfg.Admin.Password,
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
		},
	})
	userSvc := service.NewUserService(users, validate, logr)
	bookingSvc := service.NewBookingService(bookings, users, cacheSvc, metrics, validate, logr, bookingCfg)
	reviewSvc := service.NewReviewService(bookings, users, cacheSvc, metrics, validate, logr, bookingCfg)
	adminSvc := service.NewAdminService(users, bookings, cacheSvc, metrics, validate, logr, bookingCfg)
	dashboardSvc := service.NewDashboardService(users, bookings, cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Cache.DashboardTTL})
	exportSvc := service.NewExportService(bookings, users, logr)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureAdmin(bootCtx); err != nil {
		logr.Error("admin bootstrap failed", zap.Error(err))
	}
	cancelBoot()

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if cacheRepo != nil {
		checks["redis"] = cacheRepo.Ping
	}

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Authenticator:  authSvc,
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, userSvc),
		Users:     handler.NewUserHandler(userSvc),
		Bookings:  handler.NewBookingHandler(bookingSvc, reviewSvc),
		Admin:     handler.NewAdminHandler(adminSvc, exportSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
