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
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/config"
	"github.com/prapars-lang/kai/internal/database"
	"github.com/prapars-lang/kai/internal/handler"
	"github.com/prapars-lang/kai/internal/middleware"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
	"github.com/prapars-lang/kai/internal/router"
	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/pkg/ai"
	cloud "github.com/prapars-lang/kai/pkg/cloudinary"
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

	if err := db.AutoMigrate(&models.Submission{}, &models.Teacher{}, &models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	scorer, err := ai.NewOpenAIScorer(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai scorer: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewNATSEventPublisher(natsConn, "kai.submissions.graded", logger)
	recorder := service.NewActivityRecorder(activityRepo, logger)

	authService := service.NewAuthService(teacherRepo, cfg.JWTSecret, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, validate, uploader, logger)
	resultWatcher := service.NewResultWatcher(submissionService, cfg.ResultPollInterval, logger)
	gradingService := service.NewGradingService(submissionRepo, scorer, recorder, events, logger)
	bulkService := service.NewBulkService(submissionRepo, scorer, recorder, events, logger)
	statsService := service.NewStatsService(submissionRepo, redisClient, cfg.StatsCacheTTL, logger)
	exportService := service.NewExportService(submissionRepo, cfg.TeacherName, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, resultWatcher, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, bulkService, statsService, logger)
	statsHandler := handler.NewStatsHandler(statsService, logger)
	exportHandler := handler.NewExportHandler(exportService, logger)
	activityHandler := handler.NewActivityHandler(recorder, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    100 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		SubmissionHandler: submissionHandler,
		GradingHandler:    gradingHandler,
		StatsHandler:      statsHandler,
		ExportHandler:     exportHandler,
		ActivityHandler:   activityHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
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
