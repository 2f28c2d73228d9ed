package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the main struct that holds all configuration for the application.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Notifiers NotifiersConfig `mapstructure:"notifiers"`
}

// LoggerConfig holds logging-specific settings.
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig holds HTTP server-specific settings.
type HTTPConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// PostgresConfig holds all settings for the PostgreSQL database connection.
type PostgresConfig struct {
	DSN  string     `mapstructure:"dsn"`
	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig defines the connection pool settings for the database.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RabbitMQConfig holds all settings for the RabbitMQ connection.
type RabbitMQConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds all settings for the Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SchedulerConfig holds the notification scheduling settings.
type SchedulerConfig struct {
	// Cap is the hard ceiling on concurrently pending notifications,
	// mirroring the 64-entry limit of mobile notification centers.
	Cap int `mapstructure:"cap"`

	// PreferredTimes lists one to three "HH:MM" delivery times.
	PreferredTimes []string `mapstructure:"preferred_times"`

	// Language is the content language tag facts are selected by.
	Language string `mapstructure:"language"`

	// Enabled is the notifications opt-in used when the queue holds no
	// explicit permission flag yet.
	Enabled bool `mapstructure:"enabled"`

	// PollInterval is how often the dispatch poller checks for due entries.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// DispatchBatchSize limits how many due entries one poll moves to the
	// delivery queue.
	DispatchBatchSize int `mapstructure:"dispatch_batch_size"`

	// PrefetchConcurrency bounds the parallel image prefetch after a top-up.
	PrefetchConcurrency int `mapstructure:"prefetch_concurrency"`
}

// FeedConfig holds the shown-facts feed settings.
type FeedConfig struct {
	Limit    int           `mapstructure:"limit"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// NotifiersConfig holds configurations for all notification channels.
type NotifiersConfig struct {
	// Mode can be "development" or "production".
	// In "development" mode, all notifiers will be replaced by the LogNotifier.
	Mode     string         `mapstructure:"mode"`
	Channel  string         `mapstructure:"channel"`
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// EmailConfig holds SMTP settings for the email notifier.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// TelegramConfig holds settings for the Telegram notifier.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// NewConfig parses the YAML file and environment variables to return a configuration struct.
func NewConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile("configs/config.yaml")

	v.SetDefault("logger.level", "info")
	v.SetDefault("http.port", ":8080")
	v.SetDefault("http.gin_mode", "release")
	v.SetDefault("scheduler.cap", 64)
	v.SetDefault("scheduler.preferred_times", []string{"09:00"})
	v.SetDefault("scheduler.language", "en")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.poll_interval", time.Minute)
	v.SetDefault("scheduler.dispatch_batch_size", 16)
	v.SetDefault("scheduler.prefetch_concurrency", 4)
	v.SetDefault("feed.limit", 100)
	v.SetDefault("feed.cache_ttl", 5*time.Minute)
	v.SetDefault("notifiers.mode", "log_only")
	v.SetDefault("notifiers.channel", "log")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
