package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/focuslog/internal/tracking"
)

// Default config file path.
const DefaultConfigPath = "~/.config/focuslog/config.yaml"

// Environment overrides honored by ApplyEnv.
const (
	EnvHost = "FOCUSLOG_HOST"
	EnvPort = "FOCUSLOG_PORT"
)

// Config holds all focuslog configuration.
type Config struct {
	Storage   StorageConfig      `yaml:"storage"`
	Tracking  TrackingConfig     `yaml:"tracking"`
	Goals     tracking.UserGoals `yaml:"goals"`
	Analytics AnalyticsConfig    `yaml:"analytics"`
	Retention RetentionConfig    `yaml:"retention"`
	Server    ServerConfig       `yaml:"server"`
	Logging   LoggingConfig      `yaml:"logging"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
	MaxOpenConns      int    `yaml:"max_open_conns"`
}

// TrackingConfig controls how visits are attributed and filtered.
type TrackingConfig struct {
	// Timezone is the IANA zone whose midnight splits days and whose clock
	// defines hour-of-day buckets.
	Timezone        string   `yaml:"timezone"`
	DefaultUser     string   `yaml:"default_user"`
	DenylistDomains []string `yaml:"denylist_domains"`
	DenylistRegex   []string `yaml:"denylist_regex"`
}

type AnalyticsConfig struct {
	FetchChunkDays   int `yaml:"fetch_chunk_days"`
	FetchConcurrency int `yaml:"fetch_concurrency"`
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	MaxRequestSize         int64  `yaml:"max_request_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Tracking.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("tracking.timezone: %w", err))
	}
	if c.Tracking.DefaultUser == "" {
		errs = append(errs, errors.New("tracking.default_user must not be empty"))
	}
	for _, expr := range c.Tracking.DenylistRegex {
		if _, err := regexp.Compile(expr); err != nil {
			errs = append(errs, fmt.Errorf("tracking.denylist_regex %q: %w", expr, err))
		}
	}
	if err := c.Goals.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("goals: %w", err))
	}
	if c.Storage.MaxOpenConns <= 0 {
		errs = append(errs, fmt.Errorf("storage.max_open_conns must be positive, got %d", c.Storage.MaxOpenConns))
	}
	if c.Analytics.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("analytics.fetch_concurrency must be positive, got %d", c.Analytics.FetchConcurrency))
	}
	if c.Analytics.FetchChunkDays <= 0 {
		errs = append(errs, fmt.Errorf("analytics.fetch_chunk_days must be positive, got %d", c.Analytics.FetchChunkDays))
	}
	if c.Retention.Days < 0 {
		errs = append(errs, fmt.Errorf("retention.days must not be negative, got %d", c.Retention.Days))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the configured tracking time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Tracking.Timezone)
}

// DBPath returns the absolute path of the SQLite database file.
func (c *Config) DBPath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeout returns the graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// ApplyEnv overrides the listen address from FOCUSLOG_HOST and
// FOCUSLOG_PORT when they are set.
func (c *Config) ApplyEnv() error {
	if host, ok := os.LookupEnv(EnvHost); ok && host != "" {
		c.Server.Host = host
	}
	if raw, ok := os.LookupEnv(EnvPort); ok && raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%s: invalid port %q", EnvPort, raw)
		}
		c.Server.Port = port
	}
	return nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
