package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Abdul-Ahad2004/student-management-service/internal/config"
	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/handlers"
	"github.com/Abdul-Ahad2004/student-management-service/internal/mailer"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories/postgres"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
	"github.com/Abdul-Ahad2004/student-management-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		Logger:      slogLogger,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	v, err := validator.New()
	if err != nil {
		log.Fatalf("Failed to initialize validator: %v", err)
	}

	// Initialize mailer: SMTP when configured, log-only otherwise
	var m mailer.Mailer
	if cfg.SMTP.Host != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		m = mailer.NewLogMailer(slogLogger)
	}

	authConfig := services.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}

	// Initialize services. Without Kafka the service manager wires the
	// dispatcher in-process; with Kafka events go over the broker and a
	// subscriber bridge feeds the dispatcher.
	var serviceManager services.ServiceManager
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to create kafka publisher: %v", err)
		}
		publisher := events.NewWatermillPublisher(kafkaPublisher, slogLogger)
		serviceManager = services.NewServiceManager(db, repoManager.GetRepository(), slogLogger, v, m, publisher, services.ServiceManagerConfig{
			LogLevel:           cfg.LogLevel,
			Auth:               authConfig,
			EnableDebugLogging: cfg.Environment != "production",
			DefaultTimeout:     30 * time.Second,
		})
	} else {
		serviceManager = services.NewDefaultServiceManager(db, repoManager.GetRepository(), slogLogger, v, m, authConfig)
	}
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// In Kafka mode, consume the event stream back into the dispatcher.
	bridgeCtx, bridgeCancel := context.WithCancel(context.Background())
	defer bridgeCancel()
	if len(cfg.KafkaBrokers) > 0 {
		subscriber, err := events.NewKafkaSubscriber(cfg.KafkaBrokers, "student-management-dispatcher", slogLogger)
		if err != nil {
			log.Fatalf("Failed to create kafka subscriber: %v", err)
		}
		if err := events.RunSubscriberBridge(bridgeCtx, subscriber, serviceManager.Notification().Dispatch, slogLogger); err != nil {
			log.Fatalf("Failed to start event subscriber: %v", err)
		}
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, authConfig, repoManager.GetRepository().User())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Note: Authentication middleware is applied per route group in SetupRoutes

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop the event bridge before the services it feeds
	bridgeCancel()

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
