package main

import (
	"pocketledger/pkg/cache"
	"pocketledger/pkg/config"
	"pocketledger/pkg/database"
	"pocketledger/pkg/logger"
	"pocketledger/pkg/queue"
	"pocketledger/pkg/s3"
	alertsApp "pocketledger/services/alerts/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title           PocketLedger Alerts API
// @version         1.0
// @description     Alert deduplication, escalation and balance toast service for the PocketLedger household budgeting app.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to connect to S3: %v", err)
		panic(err)
	}

	alertsApp.Run(cfg, log, db, redisClient, queueClient, s3Client)
}
