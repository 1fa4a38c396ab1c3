package config

import "time"

// Store drivers
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Notify drivers
const (
	NotifyNone   = "none"
	NotifyMemory = "memory"
	NotifyRedis  = "redis"
	NotifyFile   = "file"
)

// Config holds all application configuration
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Store  StoreConfig  `mapstructure:"store"`
	Notify NotifyConfig `mapstructure:"notify"`
	Log    LogConfig    `mapstructure:"log"`
	Rules  RulesConfig  `mapstructure:"rules"`
}

// AppConfig identifies this running instance
type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	// Instance tags every change this process publishes. Empty picks a
	// random id at load time.
	Instance string `mapstructure:"instance"`
}

// StoreConfig selects where the roster is persisted
type StoreConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory redis sqlite file"`
	Key        string `mapstructure:"key" validate:"required"`
	RedisAddr  string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB    int    `mapstructure:"redis_db" validate:"gte=0,lte=15"`
	RedisTLS   bool   `mapstructure:"redis_tls"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
	Dir        string `mapstructure:"dir" validate:"required_if=Driver file"`
}

// NotifyConfig selects how changes reach other instances
type NotifyConfig struct {
	Driver    string        `mapstructure:"driver" validate:"oneof=none memory redis file"`
	Channel   string        `mapstructure:"channel" validate:"required_if=Driver redis"`
	Dir       string        `mapstructure:"dir" validate:"required_if=Driver file"`
	Retention time.Duration `mapstructure:"retention" validate:"min=0"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	// File switches output from stderr to a rotated log file
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

// RulesConfig tunes derived statistics
type RulesConfig struct {
	SavingThrows    string `mapstructure:"saving_throws" validate:"oneof=ability proficient"`
	ExternalCatalog bool   `mapstructure:"external_catalog"`
	ExternalBaseURL string `mapstructure:"external_base_url" validate:"omitempty,url"`
}
