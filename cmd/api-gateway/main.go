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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-admissions-api/api/swagger"
	"github.com/noah-isme/campus-admissions-api/internal/handler"
	"github.com/noah-isme/campus-admissions-api/internal/middleware"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	"github.com/noah-isme/campus-admissions-api/internal/service"
	"github.com/noah-isme/campus-admissions-api/pkg/cache"
	"github.com/noah-isme/campus-admissions-api/pkg/config"
	"github.com/noah-isme/campus-admissions-api/pkg/database"
	"github.com/noah-isme/campus-admissions-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-admissions-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-admissions-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-admissions-api/pkg/storage"
)

// @title Campus Admissions API
// @version 1.0.0
// @description Inquiry intake, six-stage enrollment workflow and registration finalization.
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
	gin.EnableJsonDecoderDisallowUnknownFields()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var (
		redisRepo *repository.CacheRepository
		cacheRepo service.CacheRepository
	)
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, pipeline cache disabled", zap.Error(err))
		} else {
			redisRepo = repository.NewCacheRepository(client, "campus", logr)
			defer redisRepo.Close()
			cacheRepo = redisRepo
		}
	}

	files, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.PipelineTTL, logr, cacheRepo != nil)

	users := repository.NewUserRepository(db)
	inquiries := repository.NewInquiryRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	steps := repository.NewEnrollmentStepRepository(db)
	notes := repository.NewEnrollmentNoteRepository(db)
	registrations := repository.NewRegistrationRepository(db)
	documents := repository.NewDocumentRepository(db)

	repairs := service.NewLedgerRepairService(steps, metrics, logr, service.LedgerRepairConfig{
		Workers:    cfg.Workflow.RepairWorkers,
		MaxRetries: cfg.Workflow.RepairRetries,
		RetryDelay: time.Second,
	})
	repairs.Start(ctx)
	defer repairs.Stop()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	enrollmentSvc := service.NewEnrollmentService(enrollments, steps, notes, repairs, cacheSvc, metrics, validate, logr, service.EnrollmentServiceConfig{
		PipelineTTL: cfg.Cache.PipelineTTL,
	})
	inquirySvc := service.NewInquiryService(inquiries, validate, logr)
	promotionSvc := service.NewPromotionService(inquiries, enrollments, enrollmentSvc, users, metrics, logr)
	registrationSvc := service.NewRegistrationService(registrations, enrollments, enrollmentSvc, users, logr, service.RegistrationServiceConfig{
		RequireConfirmedStage: cfg.Workflow.RequireConfirmedStage,
	})
	noteSvc := service.NewNoteService(notes, enrollments, validate)
	documentSvc := service.NewDocumentService(documents, enrollments, files,
		storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL),
		users, logr, service.DocumentServiceConfig{
			MaxFileSize:  cfg.Documents.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Documents.AllowedMIMEs,
			APIPrefix:    cfg.APIPrefix,
		})
	exportSvc := service.NewExportService(enrollments, logr)
	userSvc := service.NewUserService(users, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	deps := map[string]handler.Pinger{"database": db}
	if redisRepo != nil {
		deps["redis"] = handler.PingFunc(redisRepo.Ping)
	}
	metricsHandler := handler.NewMetricsHandler(metrics, deps)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Inquiry:      handler.NewInquiryHandler(inquirySvc, promotionSvc),
		Enrollment:   handler.NewEnrollmentHandler(enrollmentSvc, exportSvc),
		Note:         handler.NewNoteHandler(noteSvc),
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Document:     handler.NewDocumentHandler(documentSvc),
		User:         handler.NewUserHandler(userSvc),
	}, handler.RouteDeps{Tokens: authSvc, Audit: users, Logger: logr})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
