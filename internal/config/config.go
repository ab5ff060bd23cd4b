package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
)

// Store backends.
const (
	BackendMemoryAPI = "memoryapi"
	BackendSQLite    = "sqlite"
	BackendNative    = "native"
)

// Config holds all service configuration. Every field can come from an
// environment variable or the equivalent command-line flag.
type Config struct {
	Port      string `help:"HTTP listen port." name:"port" env:"PORT" default:"8080"`
	APIPrefix string `help:"Versioned prefix for resource routes." name:"api-prefix" env:"API_PREFIX" default:"/api/v1"`

	JWTSecret string        `help:"HMAC secret for access tokens." name:"jwt-secret" env:"JWT_SECRET"`
	JWTTTL    time.Duration `help:"Access token lifetime." name:"jwt-ttl" env:"JWT_TTL" default:"168h"`

	StoreBackend string `help:"Persistence backend." name:"store-backend" env:"STORE_BACKEND" enum:"memoryapi,sqlite,native" default:"memoryapi"`

	MemoryAPIURL       string        `help:"Hosted memory API base URL." name:"supermemory-api-url" env:"SUPERMEMORY_API_URL" default:"https://api.supermemory.com"`
	MemoryAPIKey       string        `help:"Hosted memory API key." name:"supermemory-api-key" env:"SUPERMEMORY_API_KEY"`
	PersistenceTimeout time.Duration `help:"Timeout for persistence calls." name:"persistence-timeout" env:"PERSISTENCE_TIMEOUT" default:"10s"`

	SQLitePath string `help:"SQLite database file for the sqlite backend." name:"sqlite-path" env:"SQLITE_PATH" default:"data/habits.db"`

	PostgresDSN string `help:"PostgreSQL DSN for users (native backend)." name:"postgres-dsn" env:"POSTGRES_DSN"`
	MongoURI    string `help:"MongoDB URI for documents (native backend)." name:"mongo-uri" env:"MONGO_URI"`
	MongoDB     string `help:"MongoDB database name." name:"mongo-db" env:"MONGO_DB" default:"habit_tracker"`

	RedisAddr     string `help:"Redis address for token revocation; empty disables it." name:"redis-addr" env:"REDIS_ADDR"`
	RedisPassword string `help:"Redis password." name:"redis-password" env:"REDIS_PASSWORD"`

	MinioEndpoint  string `help:"MinIO endpoint for generation transcripts; empty disables them." name:"minio-endpoint" env:"MINIO_ENDPOINT"`
	MinioAccessKey string `help:"MinIO access key." name:"minio-access-key" env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `help:"MinIO secret key." name:"minio-secret-key" env:"MINIO_SECRET_KEY"`
	MinioBucket    string `help:"MinIO bucket." name:"minio-bucket" env:"MINIO_BUCKET" default:"habit-transcripts"`
	MinioUseSSL    bool   `help:"Use TLS for MinIO." name:"minio-use-ssl" env:"MINIO_USE_SSL"`

	OpenAIAPIKey      string        `help:"Text-completion API key." name:"openai-api-key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `help:"Text-completion API base URL." name:"openai-base-url" env:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel       string        `help:"Text-completion model." name:"openai-model" env:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	GenerationTimeout time.Duration `help:"Timeout for generation calls." name:"generation-timeout" env:"GENERATION_TIMEOUT" default:"30s"`

	AllowedOrigins []string `help:"CORS allowed origins." name:"cors-allowed-origins" env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	LogLevel string `help:"Log level." name:"log-level" env:"LOG_LEVEL" default:"info"`
	LogFile  string `help:"Rotating log file; empty logs to stderr only." name:"log-file" env:"LOG_FILE"`
	Debug    bool   `help:"Enable debug logging." name:"debug" env:"DEBUG"`
}

// Load parses args (usually os.Args[1:]) on top of the environment.
func Load(args []string) (*Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("habit-tracker"),
		kong.Description("Habit tracking REST backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("config parser: %w", err)
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.StoreBackend {
	case BackendMemoryAPI:
		if c.MemoryAPIURL == "" {
			return errors.New("SUPERMEMORY_API_URL is required for the memoryapi backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendNative:
		if c.PostgresDSN == "" || c.MongoURI == "" {
			return errors.New("POSTGRES_DSN and MONGO_URI are required for the native backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	return nil
}
