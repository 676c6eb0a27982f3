package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/conceptbridge/transcription-api/internal/handler"
	"github.com/conceptbridge/transcription-api/internal/middleware"
	"github.com/conceptbridge/transcription-api/internal/service"
	"github.com/conceptbridge/transcription-api/internal/storage"
	"github.com/conceptbridge/transcription-api/internal/store"
)

// testApp holds the assembled fiber app plus the injected stores, so tests
// can seed job records directly instead of waiting on a live worker.
type testApp struct {
	app  *fiber.App
	jobs *store.JobStore
}

// setupApp builds an app identical to main.go but with unconfigured external
// clients, so the matcher falls back to mock embeddings. The asynq client
// points at the local test redis (DB 15); only submission tests touch it.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	jobs := store.New()
	artifacts, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	transcriptionService := service.NewTranscriptionService(jobs, artifacts, asynqClient)
	matcherService := service.NewMatcherService(nil) // nil embedder → mock fallback

	transcriptionHandler := handler.NewTranscriptionHandler(transcriptionService, validate)
	matcherHandler := handler.NewMatcherHandler(matcherService, validate)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Transcription Service API",
			"endpoints": fiber.Map{
				"matcher": "/api/matcher",
				"whisper": "/api/whisper",
			},
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"engine":   false,
				"embedder": false,
				"redis":    redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	matcher := app.Group("/api/matcher")
	matcher.Get("/", matcherHandler.Index)
	matcher.Get("/health", matcherHandler.Health)
	matcher.Post("/similarity", rateLimiter.SimilarityLimit(10000), matcherHandler.Similarity)

	// Very high submit limit so tests don't get blocked
	submitLimit := rateLimiter.TranscribeLimit(10000)
	for _, r := range []fiber.Router{app, app.Group("/api/whisper")} {
		r.Post("/transcribe", submitLimit, transcriptionHandler.Submit)
		r.Get("/transcribe/download/:jobId", transcriptionHandler.Download)
		r.Get("/transcribe/:jobId", transcriptionHandler.Status)
	}

	return &testApp{app: app, jobs: jobs}
}

// requireRedis skips tests that need the local test redis (enqueue path).
func requireRedis(t *testing.T) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at localhost:6379: %v", err)
	}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doMultipartRequest posts a multipart form with an optional file part plus
// form fields.
func doMultipartRequest(t *testing.T, app *fiber.App, path, filename, content string, fields map[string]string) (*http.Response, error) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus fails the test if the response status differs.
func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
}
