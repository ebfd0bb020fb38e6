package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Mongo        MongoConfig        `toml:"mongo"`
	Notification NotificationConfig `toml:"notification"`
	Session      SessionConfig      `toml:"session"`
	Logging      LoggingConfig      `toml:"logging"`
}

type ServerConfig struct {
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	MediaPort    string `toml:"media_port"`
	ReadTimeout  int    `toml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout"`
	Environment  string `toml:"environment"` // development, staging, production
}

type DatabaseConfig struct {
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"database_name"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
	Bucket   string `toml:"bucket"`
}

type NotificationConfig struct {
	Workers           int `toml:"workers"`             // dispatcher worker goroutines
	ChannelBufferSize int `toml:"channel_buffer_size"` // dispatcher queue depth
	FetchLimit        int `toml:"fetch_limit"`         // digest window size
	PollIntervalSecs  int `toml:"poll_interval_secs"`  // digest reconciliation interval
}

type SessionConfig struct {
	Secret   string `toml:"secret"`
	TTLHours int    `toml:"ttl_hours"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			MediaPort:    "8081",
			ReadTimeout:  15,
			WriteTimeout: 15,
			Environment:  "development",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "3306",
			Username:     "canvas",
			DatabaseName: "humancanvas",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "humancanvas",
			Bucket:   "artwork",
		},
		Notification: NotificationConfig{
			Workers:           4,
			ChannelBufferSize: 1000,
			FetchLimit:        50,
			PollIntervalSecs:  3,
		},
		Session: SessionConfig{
			TTLHours: 24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file
// and environment-variable overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Session.Secret == "" {
		return nil, errors.New("session secret is required (SESSION_SECRET)")
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	overrideString(&cfg.Server.Host, "SERVER_HOST")
	overrideString(&cfg.Server.Port, "SERVER_PORT")
	overrideString(&cfg.Server.MediaPort, "MEDIA_PORT")
	overrideString(&cfg.Server.Environment, "ENVIRONMENT")

	overrideString(&cfg.Database.Host, "DB_HOST")
	overrideString(&cfg.Database.Port, "DB_PORT")
	overrideString(&cfg.Database.Username, "DB_USER")
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.Database.DatabaseName, "DB_NAME")
	overrideInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	overrideInt(&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")

	overrideString(&cfg.Mongo.URI, "MONGO_URI")
	overrideString(&cfg.Mongo.Database, "MONGO_DB")
	overrideString(&cfg.Mongo.Bucket, "MONGO_BUCKET")

	overrideInt(&cfg.Notification.Workers, "NOTIFY_WORKERS")
	overrideInt(&cfg.Notification.ChannelBufferSize, "NOTIFY_BUFFER")
	overrideInt(&cfg.Notification.FetchLimit, "NOTIFY_FETCH_LIMIT")
	overrideInt(&cfg.Notification.PollIntervalSecs, "NOTIFY_POLL_SECS")

	overrideString(&cfg.Session.Secret, "SESSION_SECRET")
	overrideInt(&cfg.Session.TTLHours, "SESSION_TTL_HOURS")

	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
	overrideString(&cfg.Logging.Format, "LOG_FORMAT")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// DSN builds the MySQL connection string.
func (cfg *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

// PollInterval is the digest reconciliation interval as a duration.
func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.Notification.PollIntervalSecs) * time.Second
}

// SessionTTL is the session token lifetime as a duration.
func (cfg *Config) SessionTTL() time.Duration {
	return time.Duration(cfg.Session.TTLHours) * time.Hour
}
