package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string

	Port        string
	GinMode     string
	CORSOrigins []string

	// JWT token secrets
	AccessSecret  string
	RefreshSecret string
	BcryptCost    int

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs     int
	RateLimitWindow   int
	QuestionRateLimit int

	// Upload and extraction
	MaxFileSize         int64
	AllowedExtensions   []string
	FileStorageDir      string
	SyncProcessingLimit int64

	// OCR fallback service for low-quality PDF extractions
	OCRServiceURL     string
	OCRServiceEnabled bool
	OCRTimeout        int
	OCRMinQuality     float64
	OCRRequestsPerMin int

	// URL ingestion
	CrawlMaxPages int
	CrawlTimeout  int
	CrawlJSRender bool

	// Answer cache (seconds, 0 disables)
	AnswerCacheTTL int

	// Maintenance
	RetentionDays        int
	MaintenanceInterval  int
	StaleProcessingAfter int

	// Background worker
	WorkerConcurrency int

	// Telemetry
	OTLPEndpoint string
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/docqa"),
		DBName:   getEnv("DB_NAME", "docqa"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		AccessSecret:  getEnv("ACCESS_SECRET", ""),
		RefreshSecret: getEnv("REFRESH_SECRET", ""),
		BcryptCost:    getEnvInt("BCRYPT_COST", 12),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:     getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getEnvInt("RATE_LIMIT_WINDOW", 60),
		QuestionRateLimit: getEnvInt("QUESTION_RATE_LIMIT", 20),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB
		AllowedExtensions:   strings.Split(getEnv("ALLOWED_EXTENSIONS", ".pdf,.docx,.txt"), ","),
		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./uploads"),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 5242880), // 5MB

		OCRServiceURL:     getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRServiceEnabled: getEnvBool("OCR_SERVICE_ENABLED", false),
		OCRTimeout:        getEnvInt("OCR_TIMEOUT", 120),
		OCRMinQuality:     getEnvFloat64("OCR_MIN_QUALITY", 0.5),
		OCRRequestsPerMin: getEnvInt("OCR_REQUESTS_PER_MIN", 30),

		CrawlMaxPages: getEnvInt("CRAWL_MAX_PAGES", 10),
		CrawlTimeout:  getEnvInt("CRAWL_TIMEOUT", 60),
		CrawlJSRender: getEnvBool("CRAWL_JS_RENDER", false),

		AnswerCacheTTL: getEnvInt("ANSWER_CACHE_TTL", 600),

		RetentionDays:        getEnvInt("RETENTION_DAYS", 0),
		MaintenanceInterval:  getEnvInt("MAINTENANCE_INTERVAL_MIN", 30),
		StaleProcessingAfter: getEnvInt("STALE_PROCESSING_AFTER_MIN", 30),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 5),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "docqa-platform"),
	}

	// Validate required fields
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET is required - set it in .env file")
	}

	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("REFRESH_SECRET is required - set it in .env file")
	}

	return cfg, nil
}
