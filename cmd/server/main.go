package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/conceptbridge/transcription-api/internal/client"
	"github.com/conceptbridge/transcription-api/internal/config"
	"github.com/conceptbridge/transcription-api/internal/handler"
	"github.com/conceptbridge/transcription-api/internal/middleware"
	"github.com/conceptbridge/transcription-api/internal/service"
	"github.com/conceptbridge/transcription-api/internal/storage"
	"github.com/conceptbridge/transcription-api/internal/store"
	"github.com/conceptbridge/transcription-api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Job registry and artifact storage
	jobStore := store.New()
	artifactStore, err := storage.New(cfg.Transcribe.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload dir: %v", err)
	}

	// External clients. Unconfigured clients trigger mock fallbacks.
	whisperClient := client.NewWhisperClient(&cfg.Engine)
	if !whisperClient.IsConfigured() {
		log.Println("Info: transcription engine not configured, worker runs in mock mode")
	}
	embeddingClient := client.NewEmbeddingClient(&cfg.Embedding)
	if !embeddingClient.IsConfigured() {
		log.Println("Info: embedding API not configured, matcher uses mock embeddings")
	}

	// Initialize services
	transcriptionService := service.NewTranscriptionService(jobStore, artifactStore, asynqClient)
	matcherService := service.NewMatcherService(embeddingClient)

	// Initialize handlers
	transcriptionHandler := handler.NewTranscriptionHandler(transcriptionService, validate)
	matcherHandler := handler.NewMatcherHandler(matcherService, validate)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    cfg.Transcribe.MaxUploadMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Service directory
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Transcription Service API",
			"endpoints": fiber.Map{
				"matcher": "/api/matcher",
				"whisper": "/api/whisper",
			},
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"engine":   whisperClient.IsConfigured(),
				"embedder": embeddingClient.IsConfigured(),
				"redis":    redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// Matcher routes
	matcher := app.Group("/api/matcher")
	matcher.Get("/", matcherHandler.Index)
	matcher.Get("/health", matcherHandler.Health)
	matcher.Post("/similarity", rateLimiter.SimilarityLimit(cfg.RateLimit.SimilarityPerMin), matcherHandler.Similarity)

	// Transcription routes, canonical at the root and mirrored under the
	// legacy /api/whisper prefix for older clients.
	submitLimit := rateLimiter.TranscribeLimit(cfg.RateLimit.TranscribePerHour)
	registerTranscribeRoutes(app, transcriptionHandler, submitLimit)
	registerTranscribeRoutes(app.Group("/api/whisper"), transcriptionHandler, submitLimit)

	// Start Asynq worker server
	go startWorkerServer(cfg, jobStore, artifactStore, whisperClient)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func registerTranscribeRoutes(r fiber.Router, h *handler.TranscriptionHandler, submitLimit fiber.Handler) {
	r.Post("/transcribe", submitLimit, h.Submit)
	r.Get("/transcribe/download/:jobId", h.Download)
	r.Get("/transcribe/:jobId", h.Status)
}

func startWorkerServer(cfg *config.Config, jobStore *store.JobStore, artifactStore *storage.LocalStore, engine client.TranscriptionEngine) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Transcribe.Concurrency,
			Queues: map[string]int{
				"transcribe": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	transcribeWorker := worker.NewTranscribeWorker(jobStore, artifactStore, engine)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeTranscribe, transcribeWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
