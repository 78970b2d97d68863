package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	SessionStoreMemory = "memory"
	SessionStoreMySQL  = "mysql"
	SessionStoreRedis  = "redis"
)

// UnauthorizedPolicy decides what happens when the API answers 401
type UnauthorizedPolicy string

const (
	// PolicyLogout clears the browser session so the guards redirect to login
	PolicyLogout UnauthorizedPolicy = "logout"
	// PolicyManual leaves the session alone and only reports the error
	PolicyManual UnauthorizedPolicy = "manual"
)

// Config holds all configuration for the application
type Config struct {
	AppMode      string
	Port         string
	API          APIConfig
	Session      SessionConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Query        QueryConfig
	Cookie       CookieConfig
	CSRFEnabled  bool
	OTLPEndpoint string
	Unauthorized UnauthorizedPolicy
	JanitorSpec  string
}

// APIConfig holds the remote API settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	Store   string
	IdleTTL time.Duration
	MaxAge  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	URL    string
	Prefix string
}

// QueryConfig holds read cache configuration
type QueryConfig struct {
	TTL time.Duration
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite string
	Domain   string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	policy := UnauthorizedPolicy(strings.ToLower(getEnv("UNAUTHORIZED_POLICY", string(PolicyLogout))))
	if policy != PolicyLogout && policy != PolicyManual {
		return nil, fmt.Errorf("invalid UNAUTHORIZED_POLICY: '%s' (must be 'logout' or 'manual')", policy)
	}

	csrfEnabled, _ := strconv.ParseBool(getEnv("CSRF_ENABLED", strconv.FormatBool(appMode == "prod")))

	config := &Config{
		AppMode:      appMode,
		Port:         getEnv("PORT", "3000"),
		API:          loadAPIConfig(),
		Session:      session,
		Database:     loadDatabaseConfig(appMode),
		Redis:        loadRedisConfig(),
		Query:        QueryConfig{TTL: getDuration("QUERY_TTL", time.Minute)},
		Cookie:       loadCookieConfig(appMode),
		CSRFEnabled:  csrfEnabled,
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Unauthorized: policy,
		JanitorSpec:  getEnv("JANITOR_SCHEDULE", "@every 1m"),
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s, API: %s, SESSION_STORE: %s]",
		appMode, config.API.BaseURL, config.Session.Store)
	return config, nil
}

// loadAPIConfig loads remote API settings
func loadAPIConfig() APIConfig {
	return APIConfig{
		BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		Timeout: getDuration("API_TIMEOUT", 15*time.Second),
	}
}

// loadSessionConfig loads the session backend selection
func loadSessionConfig() (SessionConfig, error) {
	store := strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory))
	switch store {
	case SessionStoreMemory, SessionStoreMySQL, SessionStoreRedis:
	default:
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE: '%s' (must be 'memory', 'mysql' or 'redis')", store)
	}

	return SessionConfig{
		Store:   store,
		IdleTTL: getDuration("SESSION_IDLE_TTL", 30*time.Minute),
		MaxAge:  getDuration("SESSION_MAX_AGE", 30*24*time.Hour),
	}, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "finspark_backoffice"),
	}
}

// loadRedisConfig loads redis config
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		Prefix: getEnv("REDIS_PREFIX", "finspark:session:"),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Name:     getEnv("COOKIE_NAME", "fsid"),
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable, falling back on bad input
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}
