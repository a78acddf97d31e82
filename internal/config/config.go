// Package config loads service settings from the environment and an optional config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppPort    string
	AppVersion string
	LogLevel   string

	DatabaseDriver      string
	DatabaseDSN         string
	DatabaseAutoMigrate bool
	SeedData            bool

	DefaultUserID string

	RabbitMQURL string

	OpenAIAPIKey            string
	OpenAIModel             string
	OpenAIBaseURL           string
	RecipeRequestsPerMinute int

	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	CORSAllowOrigins string
	RateLimitMax     int
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("DATABASE_AUTO_MIGRATE", false)
	v.SetDefault("SEED_DATA", false)
	v.SetDefault("DEFAULT_USER_ID", "default-user")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("RECIPE_REQUESTS_PER_MINUTE", 10)
	v.SetDefault("AWS_S3_BUCKET", "")
	v.SetDefault("AWS_S3_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY", "")
	v.SetDefault("AWS_SECRET_KEY", "")
	v.SetDefault("AWS_S3_ENDPOINT", "")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_MAX", 100)
}

// Load reads the configuration. Environment variables override CONFIG_FILE, which
// overrides the defaults.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppPort:    v.GetString("APP_PORT"),
		AppVersion: v.GetString("APP_VERSION"),
		LogLevel:   v.GetString("LOG_LEVEL"),

		DatabaseDriver:      v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		DatabaseAutoMigrate: v.GetBool("DATABASE_AUTO_MIGRATE"),
		SeedData:            v.GetBool("SEED_DATA"),

		DefaultUserID: v.GetString("DEFAULT_USER_ID"),

		RabbitMQURL: v.GetString("RABBITMQ_URL"),

		OpenAIAPIKey:            v.GetString("OPENAI_API_KEY"),
		OpenAIModel:             v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:           v.GetString("OPENAI_BASE_URL"),
		RecipeRequestsPerMinute: v.GetInt("RECIPE_REQUESTS_PER_MINUTE"),

		S3Bucket:    v.GetString("AWS_S3_BUCKET"),
		S3Region:    v.GetString("AWS_S3_REGION"),
		S3AccessKey: v.GetString("AWS_ACCESS_KEY"),
		S3SecretKey: v.GetString("AWS_SECRET_KEY"),
		S3Endpoint:  v.GetString("AWS_S3_ENDPOINT"),

		CORSAllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
		RateLimitMax:     v.GetInt("RATE_LIMIT_MAX"),
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER is postgres")
	}
	return cfg, nil
}
