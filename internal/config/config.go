// Package config centralises configuration parsing for the healthtrends binaries.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config captures runtime configuration values. It is built once per process
// and passed to constructors. Each koanf key is the lower-cased name of the
// environment variable that sets it.
type Config struct {
	Port string `koanf:"port"`

	DBHost     string `koanf:"db_host"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`
	DBPort     string `koanf:"db_port"`
	DBSSLMode  string `koanf:"db_sslmode"`
	DBTimeZone string `koanf:"db_timezone"`

	RedisURL        string        `koanf:"redis_url"`
	RabbitMQURL     string        `koanf:"rabbitmq_url"`
	IngestExchange  string        `koanf:"ingest_exchange"`
	JWTSecret       string        `koanf:"jwt_secret_key"`
	UploadDir       string        `koanf:"upload_dir"`
	MaxUploadMB     int64         `koanf:"max_upload_mb"`
	WorkerCount     int           `koanf:"worker_count"`
	JobTimeout      time.Duration `koanf:"job_timeout"`
	JobRetention    time.Duration `koanf:"job_retention"`
	SummaryCacheTTL time.Duration `koanf:"summary_cache_ttl"`
	IngestLockTTL   time.Duration `koanf:"ingest_lock_ttl"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		DBHost:          "localhost",
		DBUser:          "postgres",
		DBPassword:      "postgres",
		DBName:          "healthtrends",
		DBPort:          "5432",
		DBSSLMode:       "disable",
		DBTimeZone:      "UTC",
		IngestExchange:  "healthtrends.ingestion",
		UploadDir:       "uploads",
		MaxUploadMB:     512,
		WorkerCount:     3,
		JobTimeout:      15 * time.Minute,
		JobRetention:    7 * 24 * time.Hour,
		SummaryCacheTTL: 10 * time.Minute,
		IngestLockTTL:   30 * time.Minute,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadDotEnv loads the first .env file found in paths. A missing file is not
// an error; the process environment still applies.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// Load layers environment variables over the defaults. Blank variables are
// treated as unset; a value that does not parse as its field's type is an
// error.
func Load() (Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	envProvider := env.ProviderWithValue("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps DB_HOST to db_host and drops blank values.
func envTransformFunc(key, value string) (string, interface{}) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return strings.ToLower(key), value
}

// MaxUploadBytes is the upload body limit.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// DSN returns the postgres connection string for gorm.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s application_name=healthtrends TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone,
	)
}
