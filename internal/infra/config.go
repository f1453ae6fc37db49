package infra

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	StorageDriver string
	StoragePath   string
	S3Bucket      string
	S3Prefix      string

	GeoIPDBPath string
	CORSOrigins []string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	RateLimitPerMinute int
	RateLimitPerDay    int
	IPRateLimitPerMin  int

	EnhanceConcurrency int
	MaxUploadBytes     int64
	MaxImagePixels     int
	PipelineParamsFile string
	OTelEnabled        bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "fs")),
		StoragePath:   getEnv("STORAGE_PATH", "./uploads"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Prefix:      getEnv("S3_PREFIX", "styleai"),

		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-preview-image-generation"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitPerDay:    getEnvInt("RATE_LIMIT_PER_DAY", 200000*24),
		IPRateLimitPerMin:  getEnvInt("IP_RATE_LIMIT_PER_MINUTE", 30),

		EnhanceConcurrency: getEnvInt("ENHANCE_CONCURRENCY", runtime.NumCPU()),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		MaxImagePixels:     getEnvInt("MAX_IMAGE_PIXELS", 40_000_000),
		PipelineParamsFile: os.Getenv("PIPELINE_PARAMS_FILE"),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageDriver {
	case "fs":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.EnhanceConcurrency < 1 {
		cfg.EnhanceConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
