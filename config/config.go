package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/joho/godotenv"
)

const (
	defaultPort          = 8080
	defaultSyncInterval  = 10 * time.Second
	minSyncInterval      = 3 * time.Second
	defaultRemoteRegion  = "auto"
	defaultRemotePrefix  = "fjj"
	defaultAllowedOrigin = "*"
)

// RemoteStoreConfig - параметры S3-совместимого хранилища (R2).
type RemoteStoreConfig struct {
	URL             string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	Prefix          string
}

// Enabled: хранилище включено только если заданы адрес, ключи и бакет.
func (c RemoteStoreConfig) Enabled() bool {
	return c.URL != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL       string
	JWTSecretKey      string
	AdminPasswordHash string
	ServerPort        int
	AllowedOrigins    []string
	RemoteStore       RemoteStoreConfig
	SyncInterval      time.Duration
	GroupSchedule     brackets.MatchDayStrategy
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if passwordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	port := defaultPort
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		port = p
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	interval := defaultSyncInterval
	if raw := os.Getenv("SYNC_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_INTERVAL environment variable: %w", err)
		}
		interval = d
	}
	if interval < minSyncInterval {
		return nil, fmt.Errorf("SYNC_INTERVAL must be at least %s, got %s", minSyncInterval, interval)
	}

	schedule := brackets.MatchDayCircle
	if raw := os.Getenv("GROUP_SCHEDULE"); raw != "" {
		s, err := brackets.ParseMatchDayStrategy(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid GROUP_SCHEDULE environment variable: %w", err)
		}
		schedule = s
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		AdminPasswordHash: passwordHash,
		ServerPort:        port,
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultAllowedOrigin)),
		RemoteStore: RemoteStoreConfig{
			URL:             os.Getenv("REMOTE_STORE_URL"),
			AccessKeyID:     os.Getenv("REMOTE_STORE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("REMOTE_STORE_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("REMOTE_STORE_BUCKET"),
			Region:          getEnv("REMOTE_STORE_REGION", defaultRemoteRegion),
			Prefix:          getEnv("REMOTE_STORE_PREFIX", defaultRemotePrefix),
		},
		SyncInterval:  interval,
		GroupSchedule: schedule,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
