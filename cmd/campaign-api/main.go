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

	_ "github.com/apexlearn/campaign-api/api/swagger"
	"github.com/apexlearn/campaign-api/internal/handler"
	"github.com/apexlearn/campaign-api/internal/middleware"
	"github.com/apexlearn/campaign-api/internal/repository"
	"github.com/apexlearn/campaign-api/internal/service"
	"github.com/apexlearn/campaign-api/internal/template"
	"github.com/apexlearn/campaign-api/pkg/cache"
	"github.com/apexlearn/campaign-api/pkg/config"
	"github.com/apexlearn/campaign-api/pkg/database"
	"github.com/apexlearn/campaign-api/pkg/jobs"
	"github.com/apexlearn/campaign-api/pkg/logger"
	"github.com/apexlearn/campaign-api/pkg/mailer"
	corsmiddleware "github.com/apexlearn/campaign-api/pkg/middleware/cors"
	reqidmiddleware "github.com/apexlearn/campaign-api/pkg/middleware/requestid"
)

// @title Campaign API
// @version 1.0.0
// @description Course timeline and email campaign scheduling service
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	transport := mailer.New(cfg.Mailer)

	campaignRepo := repository.NewCampaignRepository(db)
	eventRepo := repository.NewTimelineEventRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	fallbackStore := repository.NewFallbackStore(redisClient, logr)
	statusCache := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	renderer := template.NewEngine()
	campaignSvc := service.NewCampaignService(campaignRepo, renderer, validate, logr)
	timelineSvc := service.NewTimelineService(eventRepo, templateRepo, campaignSvc, validate, logr)
	dispatcherSvc := service.NewDispatcherService(campaignSvc, timelineSvc, transport, metricsSvc, logr, service.DispatcherConfig{
		SendTimeout: cfg.Scheduler.SendTimeout,
		SendingTTL:  cfg.Scheduler.SendingTTL,
	})
	resolverSvc := service.NewResolverService(submissionRepo, progressRepo, fallbackStore, logr)
	statusSvc := service.NewSurveyStatusService(resolverSvc, statusCache, cfg.Surveys.StatusCacheTTL, logr)
	intakeSvc := service.NewSurveyIntakeService(submissionRepo, progressRepo, fallbackStore, validate, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	campaignHandler := handler.NewCampaignHandler(campaignSvc, dispatcherSvc)
	timelineHandler := handler.NewTimelineHandler(timelineSvc)
	surveyHandler := handler.NewSurveyStatusHandler(statusSvc)
	intakeHandler := handler.NewSurveyIntakeHandler(intakeSvc)

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
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))
	{
		api.POST("/campaigns", campaignHandler.Create)
		api.GET("/campaigns", campaignHandler.List)
		api.GET("/campaigns/export", campaignHandler.ExportCSV)
		api.GET("/campaigns/:id", campaignHandler.Get)
		api.POST("/campaigns/:id/send", campaignHandler.SendImmediate)
		api.POST("/campaigns/process-scheduled", campaignHandler.ProcessScheduled)
		api.POST("/campaigns/reconcile-stuck", campaignHandler.ReconcileStuck)

		api.GET("/timeline-events", timelineHandler.List)
		api.POST("/timeline-events", timelineHandler.Create)
		api.GET("/timeline-events/:id", timelineHandler.Get)
		api.PUT("/timeline-events/:id", timelineHandler.Update)
		api.DELETE("/timeline-events/:id", timelineHandler.Delete)
		api.POST("/course-schedules/:id/materialize", timelineHandler.Materialize)

		api.GET("/email-templates", timelineHandler.ListTemplates)
		api.POST("/email-templates", timelineHandler.CreateTemplate)

		api.GET("/survey-status", surveyHandler.Get)
		api.POST("/surveys/submissions", intakeHandler.CreateSubmission)
		api.PUT("/surveys/progress", intakeHandler.SaveProgress)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sweepQueue *jobs.Queue
	if cfg.Scheduler.SweepEnabled {
		sweepQueue = jobs.NewQueue("campaign-sweep", func(ctx context.Context, job jobs.Job) error {
			now := time.Now().UTC()
			if _, err := dispatcherSvc.ProcessScheduled(ctx, now); err != nil {
				return fmt.Errorf("process scheduled: %w", err)
			}
			if _, err := dispatcherSvc.ReconcileStuck(ctx, now); err != nil {
				return fmt.Errorf("reconcile stuck: %w", err)
			}
			return nil
		}, jobs.QueueConfig{
			Workers:    cfg.Scheduler.SweepWorkers,
			BufferSize: cfg.Scheduler.SweepQueueLen,
			Logger:     logr,
		})
		sweepQueue.Start(rootCtx)

		go func() {
			ticker := time.NewTicker(cfg.Scheduler.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case tick := <-ticker.C:
					job := jobs.Job{Type: "sweep", Enqueued: tick}
					if err := sweepQueue.Enqueue(job); err != nil {
						logr.Warn("sweep tick dropped: queue full")
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if sweepQueue != nil {
		sweepQueue.Stop()
	}
}
