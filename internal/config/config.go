// Package config loads server settings from an optional YAML file and
// DRAZBA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Log    LogConfig    `mapstructure:"log"`
	Admin  AdminConfig  `mapstructure:"admin"`
	Driver DriverConfig `mapstructure:"driver"`
	NATS   NATSConfig   `mapstructure:"nats"`
	Live   LiveConfig   `mapstructure:"live"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// AdminConfig names the account created when the database is first
// initialized.
type AdminConfig struct {
	User string `mapstructure:"user"`
}

// DriverConfig schedules the auction tick and the purge of expired token
// revocations.
type DriverConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Schedule      string `mapstructure:"schedule"`
	PurgeSchedule string `mapstructure:"purge_schedule"`
}

// NATSConfig enables event fan-out to NATS when URL is set. With JetStream
// the events are published durably to a stream covering SubjectPrefix.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	JetStream     bool   `mapstructure:"jetstream"`
	Stream        string `mapstructure:"stream"`
}

type LiveConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration. An empty path skips the file and uses defaults
// and the environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DRAZBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("db.path", "drazba.sqlite3")
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("admin.user", "Admin")
	v.SetDefault("driver.enabled", true)
	v.SetDefault("driver.schedule", "@every 1s")
	v.SetDefault("driver.purge_schedule", "@hourly")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "drazba.events")
	v.SetDefault("nats.jetstream", false)
	v.SetDefault("nats.stream", "DRAZBA_EVENTS")
	v.SetDefault("live.allowed_origins", []string{})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if strings.TrimSpace(c.Admin.User) == "" {
		errs = append(errs, errors.New("admin.user is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.NATS.URL != "" && strings.TrimSpace(c.NATS.SubjectPrefix) == "" {
		errs = append(errs, errors.New("nats.subject_prefix is required when nats.url is set"))
	}
	if c.NATS.JetStream && strings.ContainsAny(c.NATS.Stream, ". *>") {
		errs = append(errs, fmt.Errorf("nats.stream %q is not a valid stream name", c.NATS.Stream))
	}
	return errors.Join(errs...)
}

// SlogLevel maps the configured level name onto a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
