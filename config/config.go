package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	MediaHost MediaHostConfig
	Render    RenderConfig
	Export    ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and S3 bucket names.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ClipsBucket          string
	ExportsBucket        string
	PresignExpireMinutes int
}

// MediaHostConfig holds credentials for the remote media-processing backend
// (trim, splice, manifest concatenation). Empty BaseURL disables the remote
// strategies and the driver falls back to local processing.
type MediaHostConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Enabled reports whether remote media-host strategies are available.
func (c MediaHostConfig) Enabled() bool { return c.BaseURL != "" }

// RenderConfig holds credentials for the remote template renderer used when
// overlays (headline, CTA, end frame) must be burned into the output.
type RenderConfig struct {
	BaseURL string
	APIKey  string
}

// Enabled reports whether the remote renderer is available.
func (c RenderConfig) Enabled() bool { return c.BaseURL != "" }

// ExportConfig holds tunables for the export pipeline.
type ExportConfig struct {
	InlineMaxBytes        int64 // payloads at or below this are returned inline instead of stored
	DownloadTimeoutSec    int   // per-clip download timeout
	PollAttempts          int   // asset-availability polling
	PollIntervalSec       int
	RenderPollAttempts    int // long-running remote renders
	RenderPollIntervalSec int
	FFmpegEnabled         bool // local ffmpeg concat as the last-resort strategy
	DownloadConcurrency   int
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/reelforge?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "reelforge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ClipsBucket:          getEnv("AWS_S3_CLIPS_BUCKET", "reelforge-clips"),
			ExportsBucket:        getEnv("AWS_S3_EXPORTS_BUCKET", "reelforge-exports"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		MediaHost: MediaHostConfig{
			BaseURL:   getEnv("MEDIA_HOST_BASE_URL", ""),
			APIKey:    getEnv("MEDIA_HOST_API_KEY", ""),
			APISecret: getEnv("MEDIA_HOST_API_SECRET", ""),
		},
		Render: RenderConfig{
			BaseURL: getEnv("RENDER_BASE_URL", ""),
			APIKey:  getEnv("RENDER_API_KEY", ""),
		},
		Export: ExportConfig{
			InlineMaxBytes:        int64(getEnvInt("EXPORT_INLINE_MAX_BYTES", 4*1024*1024)),
			DownloadTimeoutSec:    getEnvInt("EXPORT_DOWNLOAD_TIMEOUT_SEC", 60),
			PollAttempts:          getEnvInt("EXPORT_POLL_ATTEMPTS", 10),
			PollIntervalSec:       getEnvInt("EXPORT_POLL_INTERVAL_SEC", 2),
			RenderPollAttempts:    getEnvInt("EXPORT_RENDER_POLL_ATTEMPTS", 60),
			RenderPollIntervalSec: getEnvInt("EXPORT_RENDER_POLL_INTERVAL_SEC", 5),
			FFmpegEnabled:         getEnvBool("EXPORT_FFMPEG_ENABLED", false),
			DownloadConcurrency:   getEnvInt("EXPORT_DOWNLOAD_CONCURRENCY", 4),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate fails fast on partially-configured external backends so a broken
// deployment surfaces at startup rather than on the first export.
func (c *Config) validate() error {
	if c.MediaHost.Enabled() && (c.MediaHost.APIKey == "" || c.MediaHost.APISecret == "") {
		return errors.New("MEDIA_HOST_BASE_URL is set but MEDIA_HOST_API_KEY/MEDIA_HOST_API_SECRET are missing")
	}
	if c.Render.Enabled() && c.Render.APIKey == "" {
		return errors.New("RENDER_BASE_URL is set but RENDER_API_KEY is missing")
	}
	if c.Export.PollAttempts <= 0 || c.Export.RenderPollAttempts <= 0 {
		return errors.New("polling attempts must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
