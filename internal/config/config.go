package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	DBSSLMode  string
	DBPoolSize int

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryUploadFolder string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	ResetTokenTTL    time.Duration
	BcryptCost       int

	// Institutional email domain required for non-mentor registrations.
	AllowedEmailDomain string

	RateLimitPost   time.Duration
	RateLimitForgot time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost:    getEnv("DB_HOST", "localhost"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBUser:    getEnv("DB_USER", "postgres"),
		DBPass:    os.Getenv("DB_PASS"),
		DBName:    getEnv("DB_NAME", "hmcc_platform"),
		DBSSLMode: getEnv("DB_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "hmcc_platform"),

		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-too"),

		AllowedEmailDomain: getEnv("ALLOWED_EMAIL_DOMAIN", "hacettepe.edu.tr"),
	}

	var err error
	cfg.DBPoolSize, err = parseInt(getEnv("DB_POOL_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_POOL_SIZE: %w", err)
	}
	cfg.BcryptCost, err = parseInt(getEnv("BCRYPT_ROUNDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_ROUNDS: %w", err)
	}

	cfg.AccessTokenTTL, err = time.ParseDuration(getEnv("JWT_EXPIRES_IN", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	cfg.RefreshTokenTTL, err = time.ParseDuration(getEnv("JWT_REFRESH_EXPIRES_IN", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	cfg.ResetTokenTTL, err = time.ParseDuration(getEnv("RESET_TOKEN_EXPIRES_IN", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_TOKEN_EXPIRES_IN: %w", err)
	}

	cfg.RateLimitPost, err = time.ParseDuration(getEnv("RATE_LIMIT_POST", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_POST: %w", err)
	}
	cfg.RateLimitForgot, err = time.ParseDuration(getEnv("RATE_LIMIT_FORGOT", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_FORGOT: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
