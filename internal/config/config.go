package config

import (
	"ctchen222/todo-backend/internal/validator"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers understood by STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret      string        `validate:"required"`
	AccessTokenTTL time.Duration `validate:"gt=0"`
	BcryptCost     int           `validate:"min=4,max=31"`
	// Required gates mutating routes behind the identity middleware.
	Required bool
}

type StoreConfig struct {
	Driver string `validate:"oneof=mongo redis sqlite memory"`
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type EventsConfig struct {
	// UseRedis relays change events through redis pub/sub.
	UseRedis bool
}

type TelemetryConfig struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	StdoutTraces   bool
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// Override adjusts a loaded configuration before it is validated.
type Override func(*Config)

// Load reads configuration from the environment, after loading a .env file if
// one exists, then applies overrides in order and validates the result.
func Load(overrides ...Override) (*Config, error) {
	// .env is optional; deployments set real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
			BcryptCost:     getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
			Required:       getEnvAsBool("AUTH_REQUIRED", true),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "todo_db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_CONNSTRING", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "./master.db"),
		},
		Events: EventsConfig{
			UseRedis: getEnvAsBool("EVENTS_REDIS", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
			ServiceName:    getEnv("SERVICE_NAME", "todo-backend"),
			ServiceVersion: getEnv("SERVICE_VERSION", "v0.1.0"),
			StdoutTraces:   getEnvAsBool("OTEL_STDOUT_TRACES", false),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
