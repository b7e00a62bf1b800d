package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Uploads
	MaxUploadBytes int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers    []string
	KafkaEventTopic string

	// Blob store
	BlobBackend string // "postgres" or "gcs"
	GCSBucket   string

	// Cloud analysis engine (Vertex AI)
	VertexProjectID string
	VertexRegion    string
	VertexModel     string

	// Local OCR engine
	TesseractPath      string
	TesseractLanguages string
	OCRTimeout         time.Duration

	// Extraction dispatcher
	OCRWorkers   int
	OCRQueueSize int
	OCRLockTTL   time.Duration

	// Auth
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	OIDCIssuer  string
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 60*time.Second),

		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 10*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "fra_atlas"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "fra_atlas123"),
		PostgresDB:       getEnv("POSTGRES_DB", "fra_atlas"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaEventTopic: getEnv("KAFKA_EVENT_TOPIC", "fra-atlas.documents"),

		BlobBackend: getEnv("BLOB_BACKEND", "postgres"),
		GCSBucket:   getEnv("GCS_BUCKET", ""),

		VertexProjectID: getEnv("VERTEX_PROJECT_ID", ""),
		VertexRegion:    getEnv("VERTEX_REGION", "asia-south1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-1.5-pro"),

		TesseractPath:      getEnv("TESSERACT_PATH", "tesseract"),
		TesseractLanguages: getEnv("TESSERACT_LANGUAGES", "eng+hin+tel+ori+ben+mar+guj"),
		OCRTimeout:         getDuration("OCR_TIMEOUT", 2*time.Minute),

		OCRWorkers:   getIntEnv("OCR_WORKERS", 4),
		OCRQueueSize: getIntEnv("OCR_QUEUE_SIZE", 256),
		OCRLockTTL:   getDuration("OCR_LOCK_TTL", 10*time.Minute),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "fra-atlas"),
		JWTAudience: getEnv("JWT_AUDIENCE", "fra-atlas"),
		OIDCIssuer:  getEnv("OIDC_ISSUER", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
