// Package main runs the membership backend HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grace-connect/backend/config"
	"github.com/grace-connect/backend/internal/auth"
	"github.com/grace-connect/backend/internal/members"
	"github.com/grace-connect/backend/internal/middleware"
	"github.com/grace-connect/backend/internal/notifications"
	"github.com/grace-connect/backend/internal/realtime"
	"github.com/grace-connect/backend/internal/registrations"
	"github.com/grace-connect/backend/internal/updaterequests"
	"github.com/grace-connect/backend/internal/worker"
	"github.com/grace-connect/backend/pkg/database"
	"github.com/grace-connect/backend/pkg/queue"
	"github.com/grace-connect/backend/pkg/redis"
	"github.com/grace-connect/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Members
	memberRepo := members.NewRepository(pool)
	memberLookup := members.NewLookup(memberRepo, logger)
	memberHandler := members.NewHandler(memberRepo, memberLookup, logger)

	// Camp registrations
	schema := registrations.NewSchema(cfg.Camp.AttendanceDates, cfg.Camp.Branches)
	registrationRepo := registrations.NewRepository(pool)
	workflowCfg := registrations.WorkflowConfig{
		SettleDelay:  time.Duration(cfg.Camp.LookupSettleMS) * time.Millisecond,
		StoreTimeout: time.Duration(cfg.Camp.StoreTimeoutSec) * time.Second,
	}
	registrationHandler := registrations.NewHandler(schema, memberLookup, registrationRepo, hub, workflowCfg, logger)

	// Update requests + admin notifications
	jobQueue := queue.NewQueue(rdb.Client, logger)
	updateRequestRepo := updaterequests.NewRepository(pool)
	updateRequestHandler := updaterequests.NewHandler(updateRequestRepo, memberRepo, jobQueue, hub, logger)

	notificationRepo := notifications.NewRepository(pool)
	notificationHandler := notifications.NewHandler(notificationRepo, logger)
	notificationProcessor := worker.NewNotificationProcessor(notificationRepo, jobQueue, cfg.Email.AdminAddress, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	// Each websocket form session gets its own workflow.
	newWorkflow := func() *registrations.Workflow {
		return registrations.NewWorkflow(schema, memberLookup, registrationRepo, workflowCfg, logger)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: camp registration form
	router.POST("/camp/register", registrationHandler.Register)
	router.GET("/camp/registrations/:id", registrationHandler.GetByID)
	router.GET("/members/lookup", memberHandler.LookupByPhone)
	router.POST("/update-requests", updateRequestHandler.Submit)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required; dashboard)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.RequireRole("admin", "staff"))
	{
		api.GET("/users", authHandler.List)

		api.GET("/camp/registrations", registrationHandler.List)
		api.GET("/camp/stats", registrationHandler.Stats)
		api.PATCH("/camp/registrations/:id/attendance", registrationHandler.UpdateAttendance)

		api.GET("/members", memberHandler.List)
		api.POST("/members", memberHandler.Create)
		api.GET("/members/:id", memberHandler.GetByID)
		api.PATCH("/members/:id", memberHandler.Update)

		api.GET("/update-requests", updateRequestHandler.List)
		api.PATCH("/update-requests/:id/approve", updateRequestHandler.Approve)
		api.PATCH("/update-requests/:id/reject", updateRequestHandler.Reject)

		api.GET("/notifications", notificationHandler.List)
	}

	// WebSocket (token in query for the activity topic; registration topic is public)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate, newWorkflow))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (admin notification jobs). Also runs in-process
	// so a single-binary deploy needs no separate worker.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go notificationProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
