// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the spellbook bot.
type Config struct {
	AppEnv string

	Bot struct {
		Token       string        `mapstructure:"token" validate:"required"`
		PollTimeout time.Duration `mapstructure:"poll_timeout"`
	} `mapstructure:"bot"`

	Database struct {
		Path string `mapstructure:"path" validate:"required"`
	} `mapstructure:"database"`

	Catalog struct {
		Dir          string `mapstructure:"dir" validate:"required"`
		WatchChanges bool   `mapstructure:"watch_changes"`
		// DefaultBooks seeds the rulebook filter for new users.
		DefaultBooks []int `mapstructure:"default_books" validate:"min=1"`
	} `mapstructure:"catalog"`

	Session struct {
		Backend       string        `mapstructure:"backend" validate:"oneof=memory redis"`
		TTL           time.Duration `mapstructure:"ttl"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
		RedisAddr     string        `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	} `mapstructure:"session"`

	Menu struct {
		PageSize int `mapstructure:"page_size" validate:"min=1,max=50"`
	} `mapstructure:"menu"`

	Server struct {
		Port            string        `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=text json"`
		// File enables size-based rotation when set.
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	} `mapstructure:"log"`

	Sentry struct {
		Enabled bool   `mapstructure:"enabled"`
		DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	} `mapstructure:"sentry"`

	Locale string `mapstructure:"locale"`
}

// Load reads configuration from YAML files and environment variables,
// validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	// Env files are optional everywhere but local development.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.poll_timeout", 10*time.Second)
	v.SetDefault("catalog.watch_changes", true)
	v.SetDefault("catalog.default_books", []int{1})
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)
	v.SetDefault("menu.page_size", 10)
	v.SetDefault("server.port", ":9090")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("locale", "en")
}
