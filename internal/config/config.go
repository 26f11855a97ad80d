package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
)

type Config struct {
	Port   string
	AppEnv string
	Debug  bool

	StorageBackend string
	DocumentStore  string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MongoURI string
	MongoDB  string

	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	SaveDebounce time.Duration
	Timezone     *time.Location

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration

	RateLimit  int
	RateWindow time.Duration
}

// Load reads the environment, after merging an optional .env file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "production"),
		Debug:  getEnvBool("DEBUG", false),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
		DocumentStore:  strings.ToLower(getEnv("DOCUMENT_STORE", BackendPostgres)),

		DBDriver:   getEnv("DB_DRIVER", "pgx"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "habitflow_user"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "habitflow_db"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "habitflow"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "habitflow-sync-engine"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		SaveDebounce: getEnvDuration("SAVE_DEBOUNCE", 500*time.Millisecond),

		SessionIdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		RateLimit:  getEnvInt("RATE_LIMIT", 100),
		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.StorageBackend)
	}
	switch c.DocumentStore {
	case BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("DOCUMENT_STORE must be %q or %q, got %q", BackendPostgres, BackendMongo, c.DocumentStore)
	}
	switch c.DBDriver {
	case "pgx", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be \"pgx\" or \"postgres\", got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}
	if c.SessionIdleTimeout <= 0 || c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	}
	return false
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
