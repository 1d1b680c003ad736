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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-card-api/internal/handler"
	"github.com/noah-isme/sma-report-card-api/internal/repository"
	"github.com/noah-isme/sma-report-card-api/internal/service"
	"github.com/noah-isme/sma-report-card-api/pkg/cache"
	"github.com/noah-isme/sma-report-card-api/pkg/config"
	"github.com/noah-isme/sma-report-card-api/pkg/database"
	"github.com/noah-isme/sma-report-card-api/pkg/jobs"
	"github.com/noah-isme/sma-report-card-api/pkg/logger"
	"github.com/noah-isme/sma-report-card-api/pkg/storage"
)

// @title Report Card API
// @version 1.0.0
// @description Report card aggregation, grade entry and missing-grade tracking.
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "report-card:", logr)
	defer cacheRepo.Close() //nolint:errcheck

	store, err := newObjectStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	app := buildApp(cfg, db, cacheRepo, redisClient != nil, store, metrics, logr)

	if app.queue != nil {
		app.queue.Start(ctx)
		defer app.queue.Stop()
	}

	r := newRouter(cfg, app, metrics, logr)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	auth          *service.AuthService
	reportCards   *handler.ReportCardHandler
	exports       *handler.ExportHandler
	missingGrades *handler.MissingGradeHandler
	system        *handler.MetricsHandler
	queue         *jobs.Queue
}

func buildApp(cfg *config.Config, db *sqlx.DB, cacheRepo *repository.CacheRepository, cacheReady bool, store storage.ObjectStore, metrics *service.MetricsService, logr *zap.Logger) *application {
	enrollmentRepo := repository.NewEnrollmentRepository(db, metrics)
	ownershipRepo := repository.NewOwnershipRepository(db, metrics)
	studentRepo := repository.NewStudentRepository(db, metrics)
	reportRepo := repository.NewReportRepository(db, metrics)
	gradeRepo := repository.NewGradeRepository(db, metrics)
	notificationRepo := repository.NewNotificationRepository(db, metrics)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.MissingGradesTTL, logr, cfg.Cache.Enabled && cacheReady)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, logr)
	reportCardSvc := service.NewReportCardService(service.ReportCardServiceParams{
		Students:    studentRepo,
		Owners:      ownershipRepo,
		Enrollments: enrollmentSvc,
		Reports:     reportRepo,
		Grades:      gradeRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
	})
	missingSvc := service.NewMissingGradeService(ownershipRepo, enrollmentRepo, gradeRepo, cacheSvc, cfg.Cache.MissingGradesTTL, logr)
	exportSvc := service.NewExportService(
		reportCardSvc,
		store,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		metrics,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, SchoolName: cfg.Exports.SchoolName},
		logr,
	)

	app := &application{
		auth:        service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience}),
		reportCards: handler.NewReportCardHandler(reportCardSvc),
		exports:     handler.NewExportHandler(exportSvc),
		system: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		}),
	}

	if !cfg.Notifications.Enabled {
		app.missingGrades = handler.NewMissingGradeHandler(missingSvc, nil)
		return app
	}
	notificationSvc := service.NewNotificationService(missingSvc, notificationRepo, metrics, logr)
	app.queue = jobs.NewQueue("missing-grade-notifications", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		JobTimeout: 30 * time.Second,
		OnDone:     notificationSvc.JobDone,
		Logger:     logr,
	})
	notificationSvc.SetQueue(app.queue)
	app.missingGrades = handler.NewMissingGradeHandler(missingSvc, notificationSvc)
	return app
}

func newObjectStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (storage.ObjectStore, error) {
	if cfg.Exports.Driver == config.StorageDriverS3 {
		return storage.NewS3Storage(storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
	}

	local, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, err
	}
	go cleanupExports(ctx, local, cfg.Exports.SignedURLTTL, logr)
	return local, nil
}

// cleanupExports removes local exports once their download links can no longer be valid.
func cleanupExports(ctx context.Context, local *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := local.CleanupOlderThan(ttl)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
