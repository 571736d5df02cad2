package util

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config struct. All values come from .env (or the process environment when
// no .env file is present, e.g. in containers).
type Config struct {
	// Postgres connection string
	DBConn string
	// Redis address, shared by the cache and the background workers
	RedisAddr string
	// Address the HTTP server binds to, e.g. ":8080"
	ServerAddr string

	// JWT signing secret and token lifetimes
	SecretKey              string
	TokenExpiration        time.Duration
	RefreshTokenExpiration time.Duration

	// Platform email credentials for outgoing mail
	Email       string
	AppPassword string

	// Frontend URL of the reset password page; the emailed link points here
	ResetPasswordURL string

	// Bootstrap administrator account, created on first run when both are set
	AdminEmail    string
	AdminPassword string
}

// Load config from .env. A missing file is not fatal: the environment may
// already carry the variables.
func LoadConfig(path string) *Config {
	if err := godotenv.Load(path); err != nil {
		LOGGER.Warn("no .env file loaded, relying on process environment", "path", path, "error", err)
	}

	return &Config{
		DBConn:                 os.Getenv("DB_CONN"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		ServerAddr:             getEnv("SERVER_ADDR", ":8080"),
		SecretKey:              os.Getenv("SECRET_KEY"),
		TokenExpiration:        time.Duration(getEnvInt("TOKEN_EXPIRATION_MINUTES", 60)) * time.Minute,
		RefreshTokenExpiration: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRATION_MINUTES", 1440)) * time.Minute,
		Email:                  os.Getenv("EMAIL"),
		AppPassword:            os.Getenv("APP_PASSWORD"),
		ResetPasswordURL:       os.Getenv("RESET_PASSWORD_URL"),
		AdminEmail:             os.Getenv("ADMIN_EMAIL"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		LOGGER.Warn("invalid integer env value, using fallback", "key", key, "value", val)
		return fallback
	}
	return n
}
