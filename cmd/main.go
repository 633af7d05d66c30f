package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cms0/docs/swagger"
	"cms0/internal/api"
	"cms0/internal/config"
	"cms0/internal/db"
	"cms0/internal/models"
	"cms0/internal/services"
	"cms0/internal/store"
	"cms0/internal/tasks"
	"cms0/internal/utils/logger"

	"github.com/joho/godotenv"
)

// @title cms0 API
// @version 1.0
// @description Content-management backend with role-based access control
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	logger := logger.New("cms0")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Fatalf("Failed to close database connection: %v", err)
		}
	}()

	db_instance := db.GetDB()

	// Wire stores and services
	roleService := services.NewRoleService(store.NewGormRoleStore(db_instance))
	userService := services.NewUserService(store.NewGormUserStore(db_instance), roleService)

	// Seed the built-in roles. Without the baseline every request fails
	// closed, so a seed failure is fatal.
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := roleService.Seed(seedCtx); err != nil {
		seedCancel()
		log.Fatalf("Failed to seed default roles: %v", err)
	}
	seedCancel()
	logger.Success("Default roles seeded")

	// Initialize task handlers
	taskHandler := tasks.NewTaskHandler(db_instance, userService)

	// Initialize task client (shares its redis connection with the login limiter)
	taskClient := tasks.NewTaskClient(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	defer taskClient.Close()

	// Initialize task server
	taskServer := tasks.NewServer(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		taskHandler,
		logger,
	)

	// Create a context for task server
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	// Start task server
	go func() {
		if err := taskServer.Start(serverCtx); err != nil {
			logger.Error("Task server error", err)
		}
	}()

	// Initialize task scheduler
	taskScheduler := tasks.NewScheduler(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		logger,
	)

	// Start task scheduler
	go func() {
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler error", err)
		}
	}()

	// Initialize S3 service when object storage is configured
	var s3Service *services.S3Service
	if cfg.Storage.S3.BucketName != "" {
		s3Service, err = services.NewS3Service(
			cfg.Storage.S3.BucketName,
			cfg.Storage.S3.Endpoint,
			cfg.Storage.S3.Region,
			cfg.Storage.S3.AccessKey,
			cfg.Storage.S3.SecretKey,
			cfg.Storage.Provider,
		)
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}

		// Register the URL generator for media rows
		models.RegisterFileURLGenerator(s3Service)
	} else {
		logger.Warn("S3 not configured, uploads disabled")
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, db_instance, taskClient.GetRedisClient(), roleService, userService, s3Service)
	go func() {
		logger.Success("API server started")

		// Swagger documentation
		swagger.SwaggerInfo.Title = "cms0 API Documentation"
		swagger.SwaggerInfo.Description = "Content-management backend with role-based access control"
		swagger.SwaggerInfo.Version = "1.0"
		swagger.SwaggerInfo.Host = "localhost:8080"
		swagger.SwaggerInfo.Schemes = []string{"http", "https"}

		if err := apiServer.Start(); err != nil {
			logger.Error("API server error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop task scheduler
	taskScheduler.Stop()

	// Stop task server
	serverCancel()
	taskServer.Shutdown()

	// Shutdown API server
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}

	logger.Info("Servers shutdown gracefully")
}
