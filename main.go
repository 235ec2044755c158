package main

import (
	"context"
	"log"
	"time"

	"formpulse/config"
	"formpulse/handlers"
	"formpulse/middleware"
	"formpulse/models"
	"formpulse/routes"
	"formpulse/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Form{},
		&models.Question{},
		&models.Option{},
		&models.Response{},
		&models.Answer{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Score notifications run on a bounded worker queue, fire-and-forget
	dispatcher := services.NewNotificationDispatcher(ctx, services.LogNotifier{}, cfg.NotifyWorkers, cfg.NotifyQueueSize)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		dispatcher.Shutdown(shutdownCtx)
	}()

	// Initialize the live submission feed
	hub := services.NewHub()
	go hub.Run()

	// Initialize services
	formService := services.NewFormService(db)
	responseService := services.NewResponseService(db, dispatcher, hub)
	analyticsService := services.NewAnalyticsService(db)
	sentimentService := services.NewSentimentService(db, cfg.SentimentAPIURL)

	// Initialize handlers
	formHandler := handlers.NewFormHandler(formService)
	responseHandler := handlers.NewResponseHandler(responseService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, sentimentService)

	limiter := middleware.NewRedisRateLimiter(redisClient, "submit_ip", cfg.SubmitRateLimit, cfg.SubmitRateWindow)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.RegisterValidations()
	routes.SetupRoutes(router, formHandler, responseHandler, analyticsHandler, hub, formService, limiter, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
