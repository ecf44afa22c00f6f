package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSecret     string
	SyncToken     string
	AccessTTL     time.Duration
	LockTTL       time.Duration
	MigrationsDir string
	ContentDir    string
	CORSOrigin    string

	// Queue presentation
	PageSize          int
	UnpagedThreshold  int

	// Meilisearch
	MeiliURL       string
	MeiliMasterKey string

	// Redis, empty falls back to the in-process lock manager
	RedisURL string

	// Object storage for video playback
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() Config {
	return Config{
		Addr:          getenv("API_ADDR", ":8787"),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		JWTSecret:     getenv("VERDICT_JWT_SECRET", "verdict-dev-secret"),
		SyncToken:     getenv("VERDICT_SYNC_TOKEN", "verdict-sync-token"),
		AccessTTL:     time.Duration(getenvInt("VERDICT_ACCESS_TTL_SECONDS", 900)) * time.Second,
		LockTTL:       time.Duration(getenvInt("VERDICT_LOCK_TTL_SECONDS", 120)) * time.Second,
		MigrationsDir: getenv("VERDICT_MIGRATIONS_DIR", "./db/migrations"),
		ContentDir:    getenv("VERDICT_CONTENT_DIR", "./data/content"),
		CORSOrigin:    getenv("VERDICT_CORS_ORIGIN", "*"),

		PageSize:         getenvInt("VERDICT_PAGE_SIZE", 20),
		UnpagedThreshold: getenvInt("VERDICT_PAGE_THRESHOLD", 200),

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		RedisURL: getenv("REDIS_URL", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "verdict-videos"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "") == "true",
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
