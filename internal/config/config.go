package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration loaded from the environment.
type Config struct {
	Port         string
	DatabasePath string
	TrustedProxy bool // honour X-Forwarded-For / X-Real-IP

	SessionTTL     time.Duration
	SessionBackend string // "sql" or "redis"
	SecureCookies  bool
	RedisAddr      string
	RedisPassword  string

	MediaBackend   string // "disk" or "minio"
	MediaDir       string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	LoginRate  float64 // attempts per second per client
	LoginBurst int

	OTLPEndpoint string
	ServiceName  string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env: %v", err)
	}
	return &Config{
		Port:         getenv("PORT", "8080"),
		DatabasePath: getenv("DATABASE_PATH", "./data/blog.db"),
		TrustedProxy: getenv("TRUSTED_PROXY", "false") == "true",

		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),
		SessionBackend: getenv("SESSION_BACKEND", "sql"),
		SecureCookies:  getenv("SECURE_COOKIES", "false") == "true",
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),

		MediaBackend:   getenv("MEDIA_BACKEND", "disk"),
		MediaDir:       getenv("MEDIA_DIR", "./data/media"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "blog-media"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		LoginRate:  getFloat("LOGIN_RATE", 1),
		LoginBurst: getInt("LOGIN_BURST", 5),

		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getenv("OTEL_SERVICE_NAME", "blog"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("config: invalid %s=%q, using %g", key, v, fallback)
	}
	return fallback
}
