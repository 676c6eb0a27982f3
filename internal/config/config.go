package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Transcribe TranscribeConfig
	Engine     EngineConfig
	Embedding  EmbeddingConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TranscribeConfig struct {
	UploadDir   string
	MaxUploadMB int
	Concurrency int
}

type EngineConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type RateLimitConfig struct {
	TranscribePerHour int
	SimilarityPerMin  int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("ENGINE_API_KEY")
	readSecret("EMBEDDING_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("transcribe.upload_dir", "UPLOAD_DIR")
	_ = viper.BindEnv("transcribe.max_upload_mb", "MAX_UPLOAD_MB")
	_ = viper.BindEnv("transcribe.concurrency", "TRANSCRIBE_CONCURRENCY")
	_ = viper.BindEnv("engine.base_url", "ENGINE_BASE_URL")
	_ = viper.BindEnv("engine.api_key", "ENGINE_API_KEY")
	_ = viper.BindEnv("engine.timeout_seconds", "ENGINE_TIMEOUT")
	_ = viper.BindEnv("embedding.base_url", "EMBEDDING_BASE_URL")
	_ = viper.BindEnv("embedding.api_key", "EMBEDDING_API_KEY")
	_ = viper.BindEnv("embedding.model", "MATCHER_MODEL")
	_ = viper.BindEnv("ratelimit.transcribe_per_hour", "RATELIMIT_TRANSCRIBE_PER_HOUR")
	_ = viper.BindEnv("ratelimit.similarity_per_min", "RATELIMIT_SIMILARITY_PER_MIN")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("transcribe.upload_dir", "uploads")
	viper.SetDefault("transcribe.max_upload_mb", 500)
	viper.SetDefault("transcribe.concurrency", 4)

	// Engine defaults: no base URL means the worker runs in mock mode
	viper.SetDefault("engine.base_url", "")
	viper.SetDefault("engine.timeout_seconds", 600)

	// Embedding defaults
	viper.SetDefault("embedding.base_url", "http://localhost:8001/v1")
	viper.SetDefault("embedding.model", "BAAI/bge-large-en")

	viper.SetDefault("ratelimit.transcribe_per_hour", 50)
	viper.SetDefault("ratelimit.similarity_per_min", 60)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Transcribe: TranscribeConfig{
			UploadDir:   viper.GetString("transcribe.upload_dir"),
			MaxUploadMB: viper.GetInt("transcribe.max_upload_mb"),
			Concurrency: viper.GetInt("transcribe.concurrency"),
		},
		Engine: EngineConfig{
			BaseURL:        viper.GetString("engine.base_url"),
			APIKey:         viper.GetString("engine.api_key"),
			TimeoutSeconds: viper.GetInt("engine.timeout_seconds"),
		},
		Embedding: EmbeddingConfig{
			BaseURL: viper.GetString("embedding.base_url"),
			APIKey:  viper.GetString("embedding.api_key"),
			Model:   viper.GetString("embedding.model"),
		},
		RateLimit: RateLimitConfig{
			TranscribePerHour: viper.GetInt("ratelimit.transcribe_per_hour"),
			SimilarityPerMin:  viper.GetInt("ratelimit.similarity_per_min"),
		},
	}

	return cfg, nil
}
