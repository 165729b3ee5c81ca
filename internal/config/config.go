package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	JWTSecret         string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	SeedAdminUser     string
	SeedAdminPassword string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	BackupRoot      string
	RetentionDays   int
	ScanMaxDepth    int
	ScanMaxItems    int
	RulesFile       string
	CacheTTL        time.Duration
	CacheWarmupSize int

	AnthropicAPIKey string
	AnthropicModel  string

	ExecLockedRetries    int
	ExecLockedBackoff    time.Duration
	ExecIOAbortThreshold int
	ExecItemTimeout      time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  getInt("DB_MAX_CONNS", 10),
		DBMinConns:  getInt("DB_MIN_CONNS", 2),

		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:      getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:     getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		SeedAdminUser:     getEnv("SEED_ADMIN_USER", "admin"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),

		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),

		BackupRoot:      getEnv("BACKUP_ROOT", "./state/backups"),
		RetentionDays:   getInt("BACKUP_RETENTION_DAYS", 30),
		ScanMaxDepth:    getInt("SCAN_MAX_DEPTH", 6),
		ScanMaxItems:    getInt("SCAN_MAX_ITEMS", 10000),
		RulesFile:       strings.TrimSpace(os.Getenv("RULES_FILE")),
		CacheTTL:        getDuration("CACHE_TTL", 168*time.Hour),
		CacheWarmupSize: getInt("CACHE_WARMUP_SIZE", 1000),

		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL")),

		ExecLockedRetries:    getInt("EXEC_LOCKED_RETRIES", 3),
		ExecLockedBackoff:    getDuration("EXEC_LOCKED_BACKOFF", 250*time.Millisecond),
		ExecIOAbortThreshold: getInt("EXEC_IO_ABORT_THRESHOLD", 3),
		ExecItemTimeout:      getDuration("EXEC_ITEM_TIMEOUT", 2*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.BackupRoot) == "" {
		return fmt.Errorf("BACKUP_ROOT cannot be empty")
	}

	if c.RetentionDays <= 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must be positive")
	}

	if c.ExecLockedRetries < 0 {
		return fmt.Errorf("EXEC_LOCKED_RETRIES cannot be negative")
	}

	if c.ExecIOAbortThreshold <= 0 {
		return fmt.Errorf("EXEC_IO_ABORT_THRESHOLD must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
