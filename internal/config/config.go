package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token formats accepted by AUTH_TOKEN_FORMAT.
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string
	// TrustProxy makes X-Forwarded-For and X-Real-IP authoritative for the
	// client address. Enable only behind a proxy that overwrites them.
	TrustProxy bool
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	AutoMigrate    bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
}

type AuthConfig struct {
	// JWTSecret signs HS256 tokens. It is intentionally not required at load
	// time: token issuance and verification refuse to run without it.
	JWTSecret string
	// TokenFormat selects the token implementation: "jwt" or "paseto".
	TokenFormat string
	// PASETO symmetric key (must be 32 bytes for v4.local when set)
	PasetoKey     []byte
	TokenDuration time.Duration
	BcryptCost    int
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	PublicURL      string
	MaxUploadBytes int64
}

// Load reads configuration from environment variables, loading a .env file
// first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", getEnv("PORT", "3001")),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:5173"}),
			TrustProxy:      getBoolEnv("TRUST_PROXY", false),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "stocktrack"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			AutoMigrate:    getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getBoolEnv("RATE_LIMIT_ENABLED", true),
			MaxRequests: getIntEnv("RATE_LIMIT_MAX", 10),
			Window:      getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenFormat:   strings.ToLower(getEnv("AUTH_TOKEN_FORMAT", TokenFormatJWT)),
			PasetoKey:     []byte(os.Getenv("PASETO_KEY")),
			TokenDuration: getDurationEnv("TOKEN_DURATION", 7*24*time.Hour),
			BcryptCost:    getIntEnv("BCRYPT_COST", 10),
		},
		Storage: StorageConfig{
			Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:9000"),
			AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("S3_SECRET_KEY", ""),
			Bucket:         getEnv("S3_BUCKET", "stocktrack-dev"),
			Region:         getEnv("S3_REGION", "us-east-1"),
			PublicURL:      getEnv("S3_PUBLIC_URL", ""),
			MaxUploadBytes: int64(getIntEnv("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that cannot be fixed at request time.
func (c *Config) Validate() error {
	switch c.Auth.TokenFormat {
	case TokenFormatJWT:
	case TokenFormatPaseto:
		// An empty key is allowed; the token service then fails closed.
		if n := len(c.Auth.PasetoKey); n != 0 && n != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", n)
		}
	default:
		return fmt.Errorf("unsupported AUTH_TOKEN_FORMAT %q", c.Auth.TokenFormat)
	}

	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION must be positive")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// PublicBaseURL is where uploaded objects are served from. Falls back to the
// S3 endpoint, which is how MinIO exposes public buckets.
func (c *StorageConfig) PublicBaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return strings.TrimRight(c.Endpoint, "/")
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a whole number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
