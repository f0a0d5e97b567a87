package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pocketledger/pkg/config"
	"pocketledger/pkg/jwt"
	"pocketledger/pkg/logger"
	"pocketledger/pkg/middleware"
	"pocketledger/pkg/queue"
	alertsHTTP "pocketledger/services/alerts/internal/controller/http"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
	"pocketledger/services/alerts/internal/repo/statecache"
	"pocketledger/services/alerts/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "pocketledger/services/alerts/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client, uploader usecase.ArchiveUploader) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	// Initialize Repositories
	notificationRepo := persistent.NewNotificationRepository(db)
	balanceStore := statecache.NewRedisStore(redisClient)

	// Initialize UseCases
	controller := usecase.NewIdempotencyController(notificationRepo, log)
	executor := usecase.NewActionExecutor(controller, notificationRepo, log)
	alertsUseCase := usecase.NewAlertsUseCase(notificationRepo, uploader, log)
	toastMachine := usecase.NewBalanceToastMachine(balanceStore, log)

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour

	// Initialize HTTP handlers
	alertsHandler := alertsHTTP.NewAlertsHandler(alertsUseCase, executor, queueClient, retention, log)
	balanceHandler := alertsHTTP.NewBalanceHandler(toastMachine, log)

	// Setup router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	// Protected routes - require authentication
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	{
		protected.GET("/alerts", alertsHandler.GetAlerts)
		protected.POST("/alerts/:id/read", alertsHandler.MarkRead)
		protected.POST("/alerts/:id/dismiss", alertsHandler.Dismiss)
		protected.POST("/balance/observe", balanceHandler.ObserveBalance)
		protected.DELETE("/balance/state", balanceHandler.ResetBalanceState)
	}
	// Admin routes - no auth required (for internal service calls)
	{
		api.POST("/alerts/evaluate", alertsHandler.Evaluate)
		api.POST("/alerts/retention/export", alertsHandler.ExportRetention)
		api.GET("/alerts/queue/status", func(c *gin.Context) {
			length, err := queueClient.GetQueueLength()
			if err != nil {
				log.Error("Failed to get queue length: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get queue length"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"queue_length": length})
		})
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Consume evaluation batches from RabbitMQ
	go func() {
		log.Info("Starting evaluation batch consumer...")

		err := queueClient.ConsumeEvaluationBatches(func(body []byte) error {
			batch, err := entity.DecodeBatch(body)
			if err != nil {
				// A malformed batch will never become valid, drop it.
				log.Error("Dropping malformed evaluation batch: %v", err)
				return nil
			}

			result := executor.Execute(batch)
			log.Info("Applied evaluation batch for tenant %s: created=%d updated=%d skipped=%d escalated=%d archived=%d failed=%d",
				batch.TenantID, result.Created, result.Updated, result.Skipped, result.Escalated, result.Archived, result.Failed)
			return nil
		})
		if err != nil {
			log.Error("Error starting evaluation batch consumer: %v", err)
		}
	}()

	// Start server in a goroutine
	go func() {
		log.Info("Alerts service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down alerts service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	if queueClient != nil {
		queueClient.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Alerts service exited")
}
