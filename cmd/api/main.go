package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opengrade/opengrade-api/internal/config"
	"github.com/opengrade/opengrade-api/internal/database"
	"github.com/opengrade/opengrade-api/internal/handler"
	"github.com/opengrade/opengrade-api/internal/middleware"
	"github.com/opengrade/opengrade-api/internal/models"
	"github.com/opengrade/opengrade-api/internal/repository"
	"github.com/opengrade/opengrade-api/internal/router"
	"github.com/opengrade/opengrade-api/internal/service"
	"github.com/opengrade/opengrade-api/pkg/ai"
	cloud "github.com/opengrade/opengrade-api/pkg/cloudinary"
	"github.com/opengrade/opengrade-api/pkg/extract"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.SubmissionRecord{}, &models.User{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer cache.Close()
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.GradingModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create grader: %v", err)
	}

	ocr, err := extract.NewOpenAIOCR(extract.OpenAIOCRConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OCRModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create ocr engine: %v", err)
	}
	extractor := extract.New(ocr, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	ingestService := service.NewIngestService(storage, extractor, submissionRepo, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, userRepo, grader, cache, cfg.TaskCacheTTL, validate, logger)
	exportService := service.NewExportService(userRepo, logger)

	uploadHandler := handler.NewUploadHandler(ingestService, logger)
	gradeHandler := handler.NewGradeHandler(gradingService, logger)
	exportHandler := handler.NewExportHandler(exportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:           &logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		UploadHandler: uploadHandler,
		GradeHandler:  gradeHandler,
		ExportHandler: exportHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
