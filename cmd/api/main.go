package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/muni-digital/gestion-api/api/swagger"
	"github.com/muni-digital/gestion-api/internal/gateway"
	"github.com/muni-digital/gestion-api/internal/handler"
	"github.com/muni-digital/gestion-api/internal/middleware"
	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/repository"
	"github.com/muni-digital/gestion-api/internal/service"
	"github.com/muni-digital/gestion-api/internal/store"
	"github.com/muni-digital/gestion-api/pkg/cache"
	"github.com/muni-digital/gestion-api/pkg/config"
	"github.com/muni-digital/gestion-api/pkg/database"
	"github.com/muni-digital/gestion-api/pkg/jobs"
	"github.com/muni-digital/gestion-api/pkg/logger"
	corsmiddleware "github.com/muni-digital/gestion-api/pkg/middleware/cors"
	reqidmiddleware "github.com/muni-digital/gestion-api/pkg/middleware/requestid"
)

// @title Gestión Municipal API
// @version 1.0.0
// @description Back office for municipal reclamos and trámites
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
		logr.Sugar().Warnw("redis unavailable, suggestion cache disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	upstream := gateway.NewClient(cfg.Gateway, logr, gateway.WithObserver(metrics))
	collection := store.NewCollection()

	actionLogRepo := repository.NewActionLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	controller := service.NewMutationController(collection, upstream, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
	}, logr,
		service.WithMutationMetrics(metrics),
		service.WithActionLog(actionLogRepo),
		service.WithRefreshAfterConfirm(true),
	)
	controller.Start(ctx)
	defer controller.Stop()

	scheduleSvc := service.NewScheduleService(upstream, cfg.Schedule, logr)
	scheduleSessions := service.NewSessionRegistry(scheduleSvc, logr)
	suggestionSvc := service.NewSuggestionService(upstream, redisClient, cfg.Suggestions.CacheTTL, logr,
		service.WithSuggestionMetrics(metrics))
	requestSvc := service.NewRequestService(collection, controller, upstream, scheduleSvc, nil, logr)
	exportSvc := service.NewExportService(collection, logr)
	auditSvc := service.NewAuditService(actionLogRepo, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "gestion-api",
	})

	if err := requestSvc.Hydrate(ctx); err != nil {
		logr.Sugar().Warnw("mirror hydration failed, starting empty", "error", err)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, scheduleSessions)
	suggestionHandler := handler.NewSuggestionHandler(suggestionSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/requests", requestHandler.List)
	protected.GET("/requests/:id", requestHandler.Get)
	protected.GET("/requests/:id/history", requestHandler.History)
	protected.GET("/requests/:id/suggestion", suggestionHandler.Suggest)
	protected.POST("/requests/refresh", middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor), requestHandler.Refresh)

	protected.POST("/requests/:id/accept", requestHandler.Accept)
	protected.POST("/requests/:id/assign", requestHandler.Assign)
	protected.POST("/requests/:id/start", requestHandler.Start)
	protected.POST("/requests/:id/resolve", requestHandler.Resolve)
	protected.POST("/requests/:id/reject", middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor), requestHandler.Reject)
	protected.POST("/requests/:id/revert", requestHandler.Revert)

	protected.GET("/availability", scheduleHandler.Availability)
	protected.GET("/schedule/session", scheduleHandler.Session)
	protected.PUT("/schedule/selection", scheduleHandler.Select)
	protected.PUT("/schedule/proposal", scheduleHandler.Propose)
	protected.DELETE("/schedule/session", scheduleHandler.ClearSession)

	audit := protected.Group("/audit", middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
	audit.GET("/actions", auditHandler.Actions)
	audit.GET("/stats", auditHandler.Stats)

	if cfg.Exports.Enabled {
		protected.GET("/exports/requests.csv", exportHandler.RequestsCSV)
		protected.GET("/exports/requests.pdf", exportHandler.RequestsPDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
