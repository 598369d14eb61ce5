package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Game     GameConfig
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port               int    `mapstructure:"port"`
	Mode               string `mapstructure:"mode"`
	MaxClients         int    `mapstructure:"max_clients"`
	ReadTimeoutSeconds int    `mapstructure:"read_timeout_seconds"`
	IdleTimeoutSeconds int    `mapstructure:"idle_timeout_seconds"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type GameConfig struct {
	QuestionTimeoutSeconds int `mapstructure:"question_timeout_seconds"`
	SaveTTLHours           int `mapstructure:"save_ttl_hours"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("MILLIONAIRE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Server.MaxClients <= 0 {
		cfg.Server.MaxClients = 100
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 65
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 300
	}
	if cfg.Server.RateLimitPerMinute <= 0 {
		cfg.Server.RateLimitPerMinute = 120
	}
	if cfg.Game.QuestionTimeoutSeconds <= 0 {
		cfg.Game.QuestionTimeoutSeconds = 60
	}
	if cfg.Game.SaveTTLHours <= 0 {
		cfg.Game.SaveTTLHours = 72
	}

	return &cfg, nil
}

// QuestionTimeout returns the per-question answer window.
func (c *Config) QuestionTimeout() time.Duration {
	return time.Duration(c.Game.QuestionTimeoutSeconds) * time.Second
}

// SaveTTL returns how long a saved game stays resumable.
func (c *Config) SaveTTL() time.Duration {
	return time.Duration(c.Game.SaveTTLHours) * time.Hour
}
